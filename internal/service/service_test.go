package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/config"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/mocks"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/service"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var pngData = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

type testHarness struct {
	services *service.Services
	repos    *mocks.Repositories
	dir      string
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	repos := mocks.NewRepositories()
	repos.SeedOrg()

	dir := t.TempDir()
	cfg := &config.Config{
		Upload: config.UploadConfig{
			MaxSize:      5 * 1024 * 1024,
			AllowedTypes: config.DefaultAllowedTypes,
			Dir:          dir,
			PublicURL:    "/uploads/",
		},
		Security: config.SecurityConfig{BcryptCost: bcrypt.MinCost},
	}

	return &testHarness{
		services: service.NewServices(repos.Repos(), cfg, zerolog.Nop()),
		repos:    repos,
		dir:      dir,
	}
}

// validInput returns a create request that passes every rule today
func validInput() *service.UserInput {
	return &service.UserInput{Values: map[models.Field]string{
		models.FieldName:                 " Jane Doe ",
		models.FieldUserName:             "jane.doe",
		models.FieldEmail:                "Jane@Example.com",
		models.FieldEmployeeID:           "EMP-042",
		models.FieldGender:               "female",
		models.FieldPhone:                "+15551234567",
		models.FieldDateOfJoining:        time.Now().AddDate(0, -1, 0).Format(models.DateLayout),
		models.FieldDepartment:           "3",
		models.FieldDesignation:          "9",
		models.FieldPassword:             "Str0ng!Pass",
		models.FieldPasswordConfirmation: "Str0ng!Pass",
	}}
}

func mustFailure(t *testing.T, err error) *models.ValidationFailure {
	t.Helper()
	vf, ok := models.AsValidationFailure(err)
	if !ok {
		t.Fatalf("Expected ValidationFailure, got %v", err)
	}
	return vf
}

func (h *testHarness) seedUser(t *testing.T, u *models.User) *models.User {
	t.Helper()
	if err := h.repos.User.Create(context.Background(), u); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return u
}

func TestUserService_Create(t *testing.T) {
	h := newTestHarness(t)

	res, err := h.services.User.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(res.Messages) != 1 || res.Messages[0] != "User created successfully" {
		t.Errorf("Unexpected messages %v", res.Messages)
	}

	stored := h.repos.User.Users[res.User.ID]
	if stored == nil {
		t.Fatal("User should be stored")
	}
	if stored.Name != "Jane Doe" {
		t.Errorf("Expected trimmed name, got %q", stored.Name)
	}
	if stored.Email != "jane@example.com" {
		t.Errorf("Expected lower-cased email, got %q", stored.Email)
	}
	if stored.DepartmentID != 3 || stored.DesignationID != 9 || stored.ReportTo != nil {
		t.Errorf("Unexpected org fields %+v", stored)
	}
	if err := bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte("Str0ng!Pass")); err != nil {
		t.Errorf("Password hash does not verify: %v", err)
	}
}

func TestUserService_Create_RuleFailures(t *testing.T) {
	h := newTestHarness(t)

	in := validInput()
	delete(in.Values, models.FieldName)
	in.Values[models.FieldEmail] = "not-an-email"
	in.Values[models.FieldPasswordConfirmation] = "Other!Pass1"

	_, err := h.services.User.Create(context.Background(), in)
	vf := mustFailure(t, err)

	for _, f := range []string{"name", "email", "password_confirmation"} {
		if vf.First(f) == "" {
			t.Errorf("Expected error for %s, got %v", f, vf.Errors)
		}
	}
	if len(h.repos.User.Users) != 0 {
		t.Error("Nothing should be stored")
	}
}

func TestUserService_Create_Duplicates(t *testing.T) {
	h := newTestHarness(t)
	h.seedUser(t, &models.User{Name: "Existing", UserName: "JANE.DOE", Email: "jane@example.com", EmployeeID: "EMP-001"})

	_, err := h.services.User.Create(context.Background(), validInput())
	vf := mustFailure(t, err)

	if got := vf.First("user_name"); got != "Username is already taken" {
		t.Errorf("Expected username taken, got %q", got)
	}
	if got := vf.First("email"); got != "Email is already taken" {
		t.Errorf("Expected email taken, got %q", got)
	}
	if vf.First("employee_id") != "" {
		t.Errorf("Employee ID should be free, got %q", vf.First("employee_id"))
	}
}

func TestUserService_Create_References(t *testing.T) {
	tests := []struct {
		name    string
		values  map[models.Field]string
		field   string
		message string
	}{
		{
			name:    "unknown department",
			values:  map[models.Field]string{models.FieldDepartment: "99"},
			field:   "department",
			message: "Selected department does not exist",
		},
		{
			name:    "designation of another department",
			values:  map[models.Field]string{models.FieldDesignation: "20"},
			field:   "designation",
			message: "Designation does not belong to the selected department",
		},
		{
			name:    "unknown designation",
			values:  map[models.Field]string{models.FieldDesignation: "77"},
			field:   "designation",
			message: "Selected designation does not exist",
		},
		{
			name:    "unknown manager",
			values:  map[models.Field]string{models.FieldReportTo: "999"},
			field:   "report_to",
			message: "Selected manager does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness(t)
			in := validInput()
			for f, v := range tt.values {
				in.Values[f] = v
			}

			_, err := h.services.User.Create(context.Background(), in)
			vf := mustFailure(t, err)
			if got := vf.First(tt.field); got != tt.message {
				t.Errorf("Expected %q, got %q", tt.message, got)
			}
		})
	}
}

func TestUserService_Create_ManagerFromOtherDepartment(t *testing.T) {
	h := newTestHarness(t)
	manager := h.seedUser(t, &models.User{Name: "Fin", UserName: "fin", Email: "fin@example.com", EmployeeID: "EMP-900", DepartmentID: 4, DesignationID: 20})

	in := validInput()
	in.Values[models.FieldReportTo] = "1"
	if manager.ID != 1 {
		t.Fatalf("Expected seeded id 1, got %d", manager.ID)
	}

	_, err := h.services.User.Create(context.Background(), in)
	vf := mustFailure(t, err)
	if got := vf.First("report_to"); got != "Manager must belong to the selected department" {
		t.Errorf("Unexpected report_to error %q", got)
	}
}

func TestUserService_Create_WithImage(t *testing.T) {
	h := newTestHarness(t)

	in := validInput()
	in.Image = &models.Attachment{Name: "me.png", ContentType: "image/png", Data: pngData}

	res, err := h.services.User.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !strings.HasPrefix(res.User.ProfileImage, "/uploads/") || !strings.HasSuffix(res.User.ProfileImage, ".png") {
		t.Errorf("Unexpected image URL %q", res.User.ProfileImage)
	}

	rec := h.repos.Upload.Uploads[res.User.ProfileImage]
	if rec == nil {
		t.Fatal("Upload should be recorded")
	}
	if rec.ContentType != "image/png" || rec.FileName != "me.png" {
		t.Errorf("Unexpected upload record %+v", rec)
	}
	data, err := os.ReadFile(filepath.Join(h.dir, filepath.Base(rec.URL)))
	if err != nil {
		t.Fatalf("Stored file missing: %v", err)
	}
	if len(data) != len(pngData) {
		t.Errorf("Expected %d bytes, got %d", len(pngData), len(data))
	}
}

func TestUserService_Create_ImageRejected(t *testing.T) {
	tests := []struct {
		name    string
		image   *models.Attachment
		message string
	}{
		{
			name:    "disguised text file",
			image:   &models.Attachment{Name: "me.png", ContentType: "image/png", Data: []byte("just some text")},
			message: "Only JPEG, PNG, GIF and WebP images are allowed",
		},
		{
			name:    "too large",
			image:   &models.Attachment{Name: "big.png", ContentType: "image/png", Data: append(append([]byte{}, pngData...), make([]byte, 5<<20)...)},
			message: "File size must be less than 5MB",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness(t)
			in := validInput()
			in.Image = tt.image

			_, err := h.services.User.Create(context.Background(), in)
			vf := mustFailure(t, err)
			if got := vf.First("profile_image"); got != tt.message {
				t.Errorf("Expected %q, got %q", tt.message, got)
			}
			if len(h.repos.User.Users) != 0 {
				t.Error("Nothing should be stored")
			}
		})
	}
}

func TestUserService_Create_UploadedImageURL(t *testing.T) {
	h := newTestHarness(t)

	rec, err := h.services.Upload.StoreProfileImage(context.Background(), &models.Attachment{Name: "me.png", Data: pngData})
	if err != nil {
		t.Fatalf("StoreProfileImage failed: %v", err)
	}

	in := validInput()
	in.ImageURL = rec.URL
	res, err := h.services.User.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if res.User.ProfileImage != rec.URL {
		t.Errorf("Expected %q, got %q", rec.URL, res.User.ProfileImage)
	}

	in = validInput()
	in.Values[models.FieldUserName] = "someone.else"
	in.Values[models.FieldEmail] = "else@example.com"
	in.Values[models.FieldEmployeeID] = "EMP-043"
	in.ImageURL = "/uploads/forged.png"
	_, err = h.services.User.Create(context.Background(), in)
	vf := mustFailure(t, err)
	if vf.First("profile_image") == "" {
		t.Error("Expected profile_image error for unknown URL")
	}
}

func TestUserService_Create_UniqueRace(t *testing.T) {
	h := newTestHarness(t)
	h.repos.User.InsertError = &pq.Error{Code: "23505", Constraint: "users_employee_id_key"}

	_, err := h.services.User.Create(context.Background(), validInput())
	vf := mustFailure(t, err)
	if got := vf.First("employee_id"); got != "Employee ID is already taken" {
		t.Errorf("Unexpected employee_id error %q", got)
	}

	h.repos.User.InsertError = errors.New("connection refused")
	_, err = h.services.User.Create(context.Background(), validInput())
	if _, ok := models.AsValidationFailure(err); ok || err == nil {
		t.Errorf("Expected plain error, got %v", err)
	}
}

func TestUserService_Update(t *testing.T) {
	h := newTestHarness(t)

	res, err := h.services.User.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	id := res.User.ID
	oldHash := h.repos.User.Users[id].PasswordHash

	// same unique values must not collide with the record itself
	upd := &service.UserInput{Values: map[models.Field]string{
		models.FieldName:     "Jane Q. Doe",
		models.FieldUserName: "jane.doe",
		models.FieldEmail:    "jane@example.com",
	}}
	res, err = h.services.User.Update(context.Background(), id, upd)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if res.Messages[0] != "User updated successfully" {
		t.Errorf("Unexpected messages %v", res.Messages)
	}

	stored := h.repos.User.Users[id]
	if stored.Name != "Jane Q. Doe" {
		t.Errorf("Expected new name, got %q", stored.Name)
	}
	if stored.EmployeeID != "EMP-042" || stored.DesignationID != 9 {
		t.Errorf("Unsent fields should keep their value, got %+v", stored)
	}
	if string(stored.PasswordHash) != string(oldHash) {
		t.Error("Password hash should be kept when no password is sent")
	}
}

func TestUserService_Update_Errors(t *testing.T) {
	h := newTestHarness(t)

	_, err := h.services.User.Update(context.Background(), 404, &service.UserInput{})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	res, err := h.services.User.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	self := res.User.ID

	_, err = h.services.User.Update(context.Background(), self, &service.UserInput{Values: map[models.Field]string{
		models.FieldReportTo: "1",
	}})
	vf := mustFailure(t, err)
	if got := vf.First("report_to"); got != "A user cannot report to themselves" {
		t.Errorf("Unexpected report_to error %q", got)
	}

	_, err = h.services.User.Update(context.Background(), self, &service.UserInput{Values: map[models.Field]string{
		models.FieldPassword: "weak",
	}})
	vf = mustFailure(t, err)
	if vf.First("password") == "" {
		t.Error("Expected password error")
	}
}

func TestUserService_Update_LongTenure(t *testing.T) {
	h := newTestHarness(t)
	joined := time.Now().UTC().AddDate(-15, 0, 0)
	joined = time.Date(joined.Year(), joined.Month(), joined.Day(), 0, 0, 0, 0, time.UTC)
	user := h.seedUser(t, &models.User{
		Name: "Old Timer", UserName: "old.timer", Email: "old@example.com", EmployeeID: "EMP-007",
		Gender: "male", Phone: "+15551234567", DateOfJoining: joined, DepartmentID: 3, DesignationID: 9,
	})

	_, err := h.services.User.Update(context.Background(), user.ID, &service.UserInput{Values: map[models.Field]string{
		models.FieldPhone: "+15550000000",
	}})
	if err != nil {
		t.Fatalf("Expected update of a long-tenured user to succeed, got %v", err)
	}
	if got := h.repos.User.Users[user.ID].Phone; got != "+15550000000" {
		t.Errorf("Expected new phone, got %q", got)
	}

	_, err = h.services.User.Update(context.Background(), user.ID, &service.UserInput{Values: map[models.Field]string{
		models.FieldDateOfJoining: joined.AddDate(0, 0, 1).Format(models.DateLayout),
	}})
	vf := mustFailure(t, err)
	if got := vf.First("date_of_joining"); got != "Date of joining cannot be more than 10 years in the past" {
		t.Errorf("Unexpected date_of_joining error %q", got)
	}
}

func TestUserService_CheckAvailability(t *testing.T) {
	h := newTestHarness(t)
	h.seedUser(t, &models.User{Name: "Taken", UserName: "taken", Email: "taken@example.com", EmployeeID: "EMP-001"})

	tests := []struct {
		name      string
		field     models.Field
		value     string
		exclude   int64
		available bool
		wantErr   bool
	}{
		{"taken username", models.FieldUserName, "Taken", 0, false, false},
		{"free username", models.FieldUserName, "free", 0, true, false},
		{"own email in edit mode", models.FieldEmail, "taken@example.com", 1, true, false},
		{"blank value", models.FieldEmployeeID, "  ", 0, true, false},
		{"not a unique field", models.FieldPhone, "123", 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.services.User.CheckAvailability(context.Background(), tt.field, tt.value, tt.exclude)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if err != nil {
				return
			}
			if got.Available != tt.available {
				t.Errorf("Expected available=%v, got %v", tt.available, got.Available)
			}
			if !got.Available && got.Message == "" {
				t.Error("Expected a message for taken values")
			}
		})
	}
}

func TestOrgService(t *testing.T) {
	h := newTestHarness(t)
	h.seedUser(t, &models.User{Name: "alice", UserName: "alice", Email: "a@example.com", EmployeeID: "E-1", DepartmentID: 3, DesignationID: 9})
	h.seedUser(t, &models.User{Name: "Bob", UserName: "bob", Email: "b@example.com", EmployeeID: "E-2", DepartmentID: 3, DesignationID: 10})
	h.seedUser(t, &models.User{Name: "Carol", UserName: "carol", Email: "c@example.com", EmployeeID: "E-3", DepartmentID: 4, DesignationID: 20})

	deps, err := h.services.Org.Departments(context.Background())
	if err != nil || len(deps) != 2 {
		t.Fatalf("Expected 2 departments, got %d (%v)", len(deps), err)
	}

	desigs, err := h.services.Org.Designations(context.Background(), 3)
	if err != nil {
		t.Fatalf("Designations failed: %v", err)
	}
	if len(desigs) != 2 || desigs[0].Level < desigs[1].Level {
		t.Errorf("Expected 2 designations most senior first, got %+v", desigs)
	}

	cands, err := h.services.Org.ReportToCandidates(context.Background(), 3, 0)
	if err != nil {
		t.Fatalf("ReportToCandidates failed: %v", err)
	}
	if len(cands) != 2 || cands[0].Name != "Bob" {
		t.Errorf("Expected Bob first, got %+v", cands)
	}

	cands, _ = h.services.Org.ReportToCandidates(context.Background(), 3, cands[0].ID)
	if len(cands) != 1 || cands[0].Name != "alice" {
		t.Errorf("Expected only alice after excluding Bob, got %+v", cands)
	}

	cands, err = h.services.Org.ReportToCandidates(context.Background(), 0, 0)
	if err != nil || cands == nil || len(cands) != 0 {
		t.Errorf("Expected empty non-nil list without department, got %v %v", cands, err)
	}
}

func TestUploadService_Resolve(t *testing.T) {
	h := newTestHarness(t)

	if _, err := h.services.Upload.Resolve(context.Background(), "/uploads/none.png"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := h.services.Upload.StoreProfileImage(context.Background(), &models.Attachment{Name: "empty.png"}); err == nil {
		t.Error("Expected error for empty file")
	}

	h.repos.Upload.InsertError = errors.New("disk full")
	if _, err := h.services.Upload.StoreProfileImage(context.Background(), &models.Attachment{Name: "me.png", Data: pngData}); err == nil {
		t.Error("Expected error when recording fails")
	}
	entries, _ := os.ReadDir(h.dir)
	if len(entries) != 0 {
		t.Errorf("Expected stored file to be removed, found %d", len(entries))
	}
}
