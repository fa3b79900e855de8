package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// ValidationFailure carries field level problems, the HTTP 422 envelope
// `{"errors": {"field": ["message", ...]}}`
type ValidationFailure struct {
	Errors map[string][]string `json:"errors"`
}

// NewValidationFailure creates an empty failure ready for Add
func NewValidationFailure() *ValidationFailure {
	return &ValidationFailure{Errors: make(map[string][]string)}
}

// Add appends a message for field
func (v *ValidationFailure) Add(field, message string) {
	if v.Errors == nil {
		v.Errors = make(map[string][]string)
	}
	v.Errors[field] = append(v.Errors[field], message)
}

// Empty reports whether no field failed
func (v *ValidationFailure) Empty() bool { return len(v.Errors) == 0 }

// First returns the first message for field
func (v *ValidationFailure) First(field string) string {
	if msgs := v.Errors[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (v *ValidationFailure) Error() string {
	fields := make([]string, 0, len(v.Errors))
	for f := range v.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(v.Errors[f], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// AsValidationFailure unwraps err into a *ValidationFailure
func AsValidationFailure(err error) (*ValidationFailure, bool) {
	var vf *ValidationFailure
	if errors.As(err, &vf) {
		return vf, true
	}
	return nil, false
}

// APIError is a non-field failure reported by a backend, the
// `{"error": "message"}` envelope
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

// ErrorMessage returns the server provided message of err, or fallback
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
