// Package client talks to the user onboarding API over HTTP. It implements
// the collaborators of the wizard core: user create/update, uniqueness
// checks, option lists and profile image uploads.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/fieldcheck"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/form"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/options"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/upload"
	"github.com/rs/zerolog"
)

const (
	pathUsers        = "/v1/users"
	pathCheck        = "/v1/users/check/"
	pathDepartments  = "/v1/departments"
	pathDesignations = "/v1/designations"
	pathReportTo     = "/v1/report-to"
	pathUpload       = "/v1/uploads/profile-image"

	maxErrorBody = 1 << 20
)

// Client is the HTTP implementation of the wizard collaborators
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

var (
	_ form.UserAPI       = (*Client)(nil)
	_ fieldcheck.Checker = (*Client)(nil)
	_ options.Fetcher    = (*Client)(nil)
	_ upload.Uploader    = (*Client)(nil)
)

// New creates a Client with its own http.Client bounded by timeout
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout}, log)
}

// NewWithHTTPClient creates a Client over hc
func NewWithHTTPClient(baseURL string, hc *http.Client, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		log:     log.With().Str("component", "client").Logger(),
	}
}

// CreateUser posts the payload as multipart form data
func (c *Client) CreateUser(ctx context.Context, p *form.Payload) (*models.SubmitResult, error) {
	return c.submit(ctx, http.MethodPost, pathUsers, p)
}

// UpdateUser puts the payload for an existing user
func (c *Client) UpdateUser(ctx context.Context, id int64, p *form.Payload) (*models.SubmitResult, error) {
	return c.submit(ctx, http.MethodPut, pathUsers+"/"+strconv.FormatInt(id, 10), p)
}

func (c *Client) submit(ctx context.Context, method, path string, p *form.Payload) (*models.SubmitResult, error) {
	body, contentType, err := p.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	var res models.SubmitResult
	if err := c.do(req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetUser loads an existing user for edit mode
func (c *Client) GetUser(ctx context.Context, id int64) (*models.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathUsers+"/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, err
	}
	var env struct {
		User *models.User `json:"user"`
	}
	if err := c.do(req, &env); err != nil {
		var apiErr *models.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	if env.User == nil {
		return nil, models.ErrNotFound
	}
	return env.User, nil
}

// CheckAvailability asks whether value is still free for field. Both the
// {"available": bool} and {"valid": bool} answers are understood.
func (c *Client) CheckAvailability(ctx context.Context, field models.Field, value string, excludeID int64) (models.Availability, error) {
	reqBody := struct {
		Value string `json:"value"`
		ID    int64  `json:"id,omitempty"`
	}{Value: value, ID: excludeID}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return models.Availability{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathCheck+url.PathEscape(string(field)), bytes.NewReader(b))
	if err != nil {
		return models.Availability{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var res struct {
		Available *bool  `json:"available"`
		Valid     *bool  `json:"valid"`
		Message   string `json:"message"`
	}
	if err := c.do(req, &res); err != nil {
		return models.Availability{}, err
	}

	switch {
	case res.Available != nil:
		return models.Availability{Available: *res.Available, Message: res.Message}, nil
	case res.Valid != nil:
		return models.Availability{Available: *res.Valid, Message: res.Message}, nil
	}
	return models.Availability{}, fmt.Errorf("check %s: response has no availability", field)
}

// FetchDepartments loads every department
func (c *Client) FetchDepartments(ctx context.Context) ([]models.Option, error) {
	return c.fetchOptions(ctx, pathDepartments, nil)
}

// FetchDesignations loads the designations of a department
func (c *Client) FetchDesignations(ctx context.Context, departmentID int64) ([]models.Option, error) {
	return c.fetchOptions(ctx, pathDesignations, departmentQuery(departmentID))
}

// FetchReportTo loads the report-to candidates of a department
func (c *Client) FetchReportTo(ctx context.Context, departmentID int64) ([]models.Option, error) {
	return c.fetchOptions(ctx, pathReportTo, departmentQuery(departmentID))
}

func departmentQuery(departmentID int64) url.Values {
	q := url.Values{}
	if departmentID > 0 {
		q.Set("department_id", strconv.FormatInt(departmentID, 10))
	}
	return q
}

func (c *Client) fetchOptions(ctx context.Context, path string, q url.Values) ([]models.Option, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}
	list, err := decodeList(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return options.NormalizeAll(list), nil
}

// decodeList accepts a bare array or an envelope with a data array
func decodeList(raw json.RawMessage) ([]map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	var list []map[string]any
	if len(raw) > 0 && raw[0] == '[' {
		err := json.Unmarshal(raw, &list)
		return list, err
	}
	var env struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// do sends req and decodes a 2xx JSON body into out. Other statuses become
// a *models.ValidationFailure (422) or a *models.APIError.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(started)).
		Msg("Backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode == http.StatusUnprocessableEntity {
		if vf := decodeFailure(body); vf != nil {
			return vf
		}
	}

	apiErr := &models.APIError{Status: resp.StatusCode}
	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &env) == nil {
		apiErr.Message = env.Error
		if apiErr.Message == "" {
			apiErr.Message = env.Message
		}
	}
	return apiErr
}

// decodeFailure reads {"errors": {field: "msg" | ["msg", ...]}}
func decodeFailure(body []byte) *models.ValidationFailure {
	var env struct {
		Errors  map[string]json.RawMessage `json:"errors"`
		Message string                     `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Errors) == 0 {
		return nil
	}

	vf := models.NewValidationFailure()
	for field, raw := range env.Errors {
		var many []string
		if err := json.Unmarshal(raw, &many); err == nil {
			for _, m := range many {
				vf.Add(field, m)
			}
			continue
		}
		var one string
		if err := json.Unmarshal(raw, &one); err == nil {
			vf.Add(field, one)
		}
	}
	if vf.Empty() {
		return nil
	}
	return vf
}
