package validation

import (
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
)

// Source identifies which check produced a field error
type Source string

const (
	SourceRule       Source = "rule"
	SourceUniqueness Source = "uniqueness"
	SourceServer     Source = "server"
	SourceAdvice     Source = "advice"
)

// FieldError is a single field problem
type FieldError struct {
	Message string `json:"message"`
	Source  Source `json:"source,omitempty"`
}

// ErrorSet maps a field to its current problem. Keys exist only for fields
// that are currently failing.
type ErrorSet map[models.Field]FieldError

// Has reports whether f has an entry
func (e ErrorSet) Has(f models.Field) bool {
	_, ok := e[f]
	return ok
}

// Message returns the message for f or ""
func (e ErrorSet) Message(f models.Field) string {
	return e[f].Message
}

// Merge copies other into e, other wins per field
func (e ErrorSet) Merge(other ErrorSet) {
	for f, fe := range other {
		e[f] = fe
	}
}

// Clone returns a copy of e
func (e ErrorSet) Clone() ErrorSet {
	out := make(ErrorSet, len(e))
	for f, fe := range e {
		out[f] = fe
	}
	return out
}

// ClearSource removes the entry for f if it came from src
func (e ErrorSet) ClearSource(f models.Field, src Source) {
	if fe, ok := e[f]; ok && fe.Source == src {
		delete(e, f)
	}
}

// Fields returns the failing fields in display order
func (e ErrorSet) Fields() []models.Field {
	out := make([]models.Field, 0, len(e))
	for _, f := range models.AllFields {
		if e.Has(f) {
			out = append(out, f)
		}
	}
	if e.Has(models.FieldProfileImage) {
		out = append(out, models.FieldProfileImage)
	}
	return out
}

// ToFailure converts the set into the 422 envelope
func (e ErrorSet) ToFailure() *models.ValidationFailure {
	vf := models.NewValidationFailure()
	for _, f := range e.Fields() {
		vf.Add(string(f), e[f].Message)
	}
	return vf
}

// FromFailure maps a 422 envelope into an ErrorSet. Messages keyed by names
// that are not draft fields are returned separately so callers can show
// them as a form level notice.
func FromFailure(vf *models.ValidationFailure) (ErrorSet, []string) {
	set := make(ErrorSet)
	var general []string
	for name, msgs := range vf.Errors {
		if len(msgs) == 0 {
			continue
		}
		f := models.Field(name)
		if f.IsKnown() || f == models.FieldProfileImage {
			set[f] = FieldError{Message: msgs[0], Source: SourceServer}
			continue
		}
		general = append(general, msgs...)
	}
	return set, general
}
