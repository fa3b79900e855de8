package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/api"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/client"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/config"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/fieldcheck"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/form"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/mocks"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/service"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/upload"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/wizard"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var pngData = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

type testEnv struct {
	router  *gin.Engine
	users   *mocks.MockUserService
	org     *mocks.MockOrgService
	uploads *mocks.MockUploadService
	wizards *wizard.Store
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "8080"},
		Upload: config.UploadConfig{
			MaxSize:      5 * 1024 * 1024,
			AllowedTypes: config.DefaultAllowedTypes,
			Dir:          dir,
			PublicURL:    "/uploads",
		},
		Security: config.SecurityConfig{BcryptCost: bcrypt.MinCost},
	}
}

func wizardConfig() wizard.Config {
	opts := fieldcheck.DefaultOptions()
	opts.SyncDelay = 5 * time.Millisecond
	opts.AsyncDelay = 5 * time.Millisecond
	opts.Timeout = time.Second
	return wizard.Config{
		Form:       form.Config{Timeout: 2 * time.Second, Validation: opts},
		Limits:     upload.DefaultLimits(),
		SessionTTL: time.Minute,
	}
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		users:   mocks.NewMockUserService(),
		org:     mocks.NewMockOrgService(),
		uploads: mocks.NewMockUploadService(),
	}
	services := &service.Services{User: env.users, Org: env.org, Upload: env.uploads}

	env.wizards = wizard.NewStore(wizardConfig(), wizard.NewLocal(services), zerolog.Nop())
	t.Cleanup(env.wizards.Shutdown)

	env.router = api.NewRouter(services, env.wizards, nil, testConfig(t.TempDir()), zerolog.Nop())
	return env
}

func (e *testEnv) do(method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(method, target string, v any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(v)
	return e.do(method, target, b, "application/json")
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, data []byte) ([]byte, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		part.Write(data)
	}
	mw.Close()
	return buf.Bytes(), mw.FormDataContentType()
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Invalid JSON %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	response := decode(t, w)
	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "aero-hr-user-wizard" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

type fakePinger struct{ err error }

func (f fakePinger) HealthCheck(ctx context.Context) error { return f.err }

func TestReadyEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	services := &service.Services{User: mocks.NewMockUserService(), Org: mocks.NewMockOrgService(), Upload: mocks.NewMockUploadService()}

	tests := []struct {
		name           string
		db             api.Pinger
		expectedStatus int
	}{
		{"no database", nil, http.StatusOK},
		{"healthy", fakePinger{}, http.StatusOK},
		{"down", fakePinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := api.NewRouter(services, nil, tt.db, testConfig(t.TempDir()), zerolog.Nop())
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/ready", nil))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestRouter(t)
	if _, err := env.wizards.Open(context.Background(), 0); err != nil {
		t.Fatalf("open: %v", err)
	}

	response := decode(t, env.do("GET", "/metrics", nil, ""))
	wz := response["wizard"].(map[string]interface{})
	if wz["open_sessions"].(float64) != 1 {
		t.Errorf("Expected 1 open session, got %v", wz["open_sessions"])
	}
}

func TestCreateUser(t *testing.T) {
	env := setupTestRouter(t)

	body, ct := multipartBody(t, map[string]string{
		"name":      "Jane Doe",
		"user_name": "jane.doe",
		"team":      "ignored",
	}, "profile_image", "me.png", pngData)
	w := env.do("POST", "/v1/users", body, ct)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(env.users.Created) != 1 {
		t.Fatalf("Expected 1 create call, got %d", len(env.users.Created))
	}
	in := env.users.Created[0]
	if in.Values[models.FieldUserName] != "jane.doe" {
		t.Errorf("Expected user_name 'jane.doe', got %q", in.Values[models.FieldUserName])
	}
	if _, ok := in.Values["team"]; ok {
		t.Error("Unknown fields must not reach the service")
	}
	if in.Image == nil || !bytes.Equal(in.Image.Data, pngData) {
		t.Error("Expected the profile image to be forwarded")
	}

	response := decode(t, w)
	user := response["user"].(map[string]interface{})
	if user["id"].(float64) != 101 {
		t.Errorf("Expected id 101, got %v", user["id"])
	}
}

func TestCreateUser_Errors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "field errors",
			err:            &models.ValidationFailure{Errors: map[string][]string{"email": {"Email is already taken"}}},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"errors":{"email":["Email is already taken"]}`,
		},
		{
			name:           "system failure",
			err:            errors.New("connection refused"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"failed to create user"`,
		},
		{
			name:           "timeout",
			err:            context.DeadlineExceeded,
			expectedStatus: http.StatusGatewayTimeout,
			expectedBody:   `"error":"request timed out"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(t)
			env.users.CreateFunc = func(ctx context.Context, in *service.UserInput) (*models.SubmitResult, error) {
				return nil, tt.err
			}

			body, ct := multipartBody(t, map[string]string{"name": "Jane"}, "", "", nil)
			w := env.do("POST", "/v1/users", body, ct)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.expectedBody) {
				t.Errorf("Expected %s in response, got: %s", tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestUpdateAndGetUser(t *testing.T) {
	env := setupTestRouter(t)
	env.users.Users[7] = &models.User{ID: 7, Name: "Jane Doe", UserName: "jane.doe", PasswordHash: []byte("secret")}

	w := env.do("GET", "/v1/users/7", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "secret") {
		t.Error("Password hash must never be serialized")
	}

	body, ct := multipartBody(t, map[string]string{"name": "Jane Smith"}, "", "", nil)
	w = env.do("PUT", "/v1/users/7", body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if name := env.users.Updated[0].Values[models.FieldName]; name != "Jane Smith" {
		t.Errorf("Expected name 'Jane Smith', got %q", name)
	}

	tests := []struct {
		method         string
		url            string
		expectedStatus int
	}{
		{"GET", "/v1/users/8", http.StatusNotFound},
		{"GET", "/v1/users/abc", http.StatusBadRequest},
		{"PUT", "/v1/users/8", http.StatusNotFound},
		{"PUT", "/v1/users/0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.url, func(t *testing.T) {
			body, ct := multipartBody(t, map[string]string{"name": "x"}, "", "", nil)
			if w := env.do(tt.method, tt.url, body, ct); w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestCheckAvailability(t *testing.T) {
	env := setupTestRouter(t)
	env.users.Take(models.FieldEmail, "jane@x.com")

	tests := []struct {
		name           string
		field          string
		value          string
		expectedStatus int
		available      bool
	}{
		{"taken", "email", "Jane@X.com", http.StatusOK, false},
		{"free", "email", "john@x.com", http.StatusOK, true},
		{"not a unique field", "name", "Jane", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.doJSON("POST", "/v1/users/check/"+tt.field, map[string]interface{}{"value": tt.value})
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if w.Code != http.StatusOK {
				return
			}
			if got := decode(t, w)["available"]; got != tt.available {
				t.Errorf("Expected available %v, got %v", tt.available, got)
			}
		})
	}
}

func TestOptionLists(t *testing.T) {
	env := setupTestRouter(t)

	tests := []struct {
		url            string
		expectedStatus int
		expectedCount  int
	}{
		{"/v1/departments", http.StatusOK, 2},
		{"/v1/designations", http.StatusOK, 3},
		{"/v1/designations?department_id=3", http.StatusOK, 2},
		{"/v1/designations?department_id=x", http.StatusBadRequest, 0},
		{"/v1/report-to?department_id=3", http.StatusOK, 2},
		{"/v1/report-to?department_id=3&exclude=1", http.StatusOK, 1},
		{"/v1/report-to?department_id=4", http.StatusOK, 0},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			w := env.do("GET", tt.url, nil, "")
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if w.Code != http.StatusOK {
				return
			}
			data := decode(t, w)["data"].([]interface{})
			if len(data) != tt.expectedCount {
				t.Errorf("Expected %d items, got %d", tt.expectedCount, len(data))
			}
		})
	}
}

func TestOptionLists_Failure(t *testing.T) {
	env := setupTestRouter(t)
	env.org.Err = errors.New("database down")

	w := env.do("GET", "/v1/departments", nil, "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestUploadProfileImage(t *testing.T) {
	env := setupTestRouter(t)

	tests := []struct {
		name           string
		data           []byte
		expectedStatus int
		expectedBody   string
	}{
		{"png", pngData, http.StatusCreated, `"url":"/uploads/1.png"`},
		{"text file", []byte("hello world"), http.StatusUnprocessableEntity, "images are allowed"},
		{"too large", append(append([]byte(nil), pngData...), make([]byte, 6<<20)...), http.StatusUnprocessableEntity, "File size must be less than 5MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, nil, "file", "me.png", tt.data)
			w := env.do("POST", "/v1/uploads/profile-image", body, ct)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.expectedBody) {
				t.Errorf("Expected %s in response, got: %s", tt.expectedBody, w.Body.String())
			}
		})
	}

	w := env.do("POST", "/v1/uploads/profile-image", []byte("{}"), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without a file, got %d", w.Code)
	}
}

func TestWizardSessionFlow(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("POST", "/v1/wizard/sessions", nil, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	session := decode(t, w)["session"].(map[string]interface{})
	id := session["id"].(string)
	base := "/v1/wizard/sessions/" + id

	// step 1 is incomplete, next stays put
	response := decode(t, env.do("POST", base+"/next", nil, ""))
	if response["advanced"] != false {
		t.Errorf("Expected advanced false, got %v", response["advanced"])
	}

	w = env.doJSON("PATCH", base+"/fields?wait=true", map[string]interface{}{"fields": map[string]string{
		"name":                  "Jane Doe",
		"user_name":             "jane.doe",
		"email":                 "jane@x.com",
		"employee_id":           "EMP-042",
		"gender":                "female",
		"phone":                 "+15551234567",
		"date_of_joining":       time.Now().AddDate(0, -1, 0).Format(models.DateLayout),
		"department":            "3",
		"designation":           "9",
		"password":              "Str0ng!Pass",
		"password_confirmation": "Str0ng!Pass",
	}})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	response = decode(t, env.do("POST", base+"/next", nil, ""))
	if response["advanced"] != true {
		t.Errorf("Expected advanced true, got %v: %v", response["advanced"], response)
	}
	response = decode(t, env.do("POST", base+"/previous", nil, ""))
	if response["moved"] != true {
		t.Errorf("Expected moved true, got %v", response["moved"])
	}

	body, ct := multipartBody(t, nil, "file", "me.png", pngData)
	if w := env.do("PUT", base+"/profile-image", body, ct); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	w = env.do("GET", base+"/profile-image/preview", nil, "")
	if w.Code != http.StatusOK || !bytes.Equal(w.Body.Bytes(), pngData) {
		t.Errorf("Expected preview bytes, got status %d", w.Code)
	}

	response = decode(t, env.do("POST", base+"/submit", nil, ""))
	if response["phase"] != "success" {
		t.Fatalf("Expected phase success, got %v", response)
	}
	if len(env.users.Created) != 1 || env.users.Created[0].Image == nil {
		t.Fatalf("Expected one create with image, got %+v", env.users.Created)
	}
	toasts := response["session"].(map[string]interface{})["toasts"].([]interface{})
	if len(toasts) != 1 {
		t.Errorf("Expected 1 toast, got %d", len(toasts))
	}

	w = env.do("DELETE", base, nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 closing a saved session, got %d", w.Code)
	}
	if w := env.do("GET", base, nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after close, got %d", w.Code)
	}
}

func TestWizardSession_Errors(t *testing.T) {
	env := setupTestRouter(t)

	if w := env.do("GET", "/v1/wizard/sessions/nope", nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if w := env.doJSON("POST", "/v1/wizard/sessions", map[string]int64{"user_id": 99}); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for an unknown user, got %d", w.Code)
	}

	session := decode(t, env.do("POST", "/v1/wizard/sessions", nil, ""))["session"].(map[string]interface{})
	base := "/v1/wizard/sessions/" + session["id"].(string)

	if w := env.doJSON("PATCH", base+"/fields", map[string]interface{}{"fields": map[string]string{"team": "x"}}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for an unknown field, got %d", w.Code)
	}
	if w := env.doJSON("PATCH", base+"/fields", map[string]interface{}{"fields": map[string]string{"name": "Jane"}}); w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	// unsaved changes need confirmation
	if w := env.do("DELETE", base, nil, ""); w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
	if w := env.do("DELETE", base+"?confirm=true", nil, ""); w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

// TestClientAgainstRouter runs the HTTP client against the real services
// behind the router, so both halves of the wire format are exercised.
func TestClientAgainstRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repos := mocks.NewRepositories()
	repos.SeedOrg()
	cfg := testConfig(t.TempDir())
	services := service.NewServices(repos.Repos(), cfg, zerolog.Nop())

	srv := httptest.NewServer(api.NewRouter(services, nil, nil, cfg, zerolog.Nop()))
	defer srv.Close()

	c := client.New(srv.URL, 5*time.Second, zerolog.Nop())
	store := wizard.NewStore(wizardConfig(), c, zerolog.Nop())
	defer store.Shutdown()
	ctx := context.Background()

	url, err := c.UploadProfileImage(ctx, &models.Attachment{Name: "me.png", ContentType: "image/png", Data: pngData}, nil)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/") {
		t.Errorf("Expected a public upload URL, got %q", url)
	}
	resp, err := http.Get(srv.URL + url)
	if err != nil {
		t.Fatalf("fetch upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected stored image to be served, got %d", resp.StatusCode)
	}

	sess, err := store.Open(ctx, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	values := map[models.Field]string{
		models.FieldName:                 "Jane Doe",
		models.FieldUserName:             "jane.doe",
		models.FieldEmail:                "Jane@X.com",
		models.FieldEmployeeID:           "EMP-042",
		models.FieldGender:               "female",
		models.FieldPhone:                "+15551234567",
		models.FieldDateOfJoining:        time.Now().AddDate(0, -1, 0).Format(models.DateLayout),
		models.FieldDepartment:           "3",
		models.FieldDesignation:          "9",
		models.FieldPassword:             "Str0ng!Pass",
		models.FieldPasswordConfirmation: "Str0ng!Pass",
	}
	if err := sess.Apply(ctx, values); err != nil {
		t.Fatalf("apply: %v", err)
	}
	sess.Wait()

	if phase := sess.Submit(ctx); phase != form.PhaseSuccess {
		t.Fatalf("Expected success, got %s: %+v", phase, sess.Snapshot().Errors)
	}
	stored, _ := repos.User.GetByID(ctx, 1)
	if stored == nil || stored.Email != "jane@x.com" {
		t.Fatalf("Expected stored user with lowercased email, got %+v", stored)
	}

	// the same username is now reported by the uniqueness check
	second, err := store.Open(ctx, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := second.Apply(ctx, map[models.Field]string{models.FieldUserName: "JANE.DOE"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	second.Wait()
	if msg := second.Snapshot().Errors.Message(models.FieldUserName); msg != "Username is already taken" {
		t.Errorf("Expected username taken, got %q", msg)
	}
}
