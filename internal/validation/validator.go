package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
)

var (
	nameRegex       = regexp.MustCompile(`^\p{L}[\p{L} .'-]*$`)
	userNameRegex   = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
	emailRegex      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	employeeIDRegex = regexp.MustCompile(`^[A-Z0-9-]+$`)
	phoneRegex      = regexp.MustCompile(`^\+?[0-9][0-9\s()-]{6,19}$`)
)

// MsgInvalidValue is reported when a value cannot be parsed at all
const MsgInvalidValue = "Invalid value"

const (
	minAge          = 16
	joiningPastYrs  = 10
	joiningAheadYrs = 1
	minPasswordLen  = 8
	maxPasswordLen  = 128
)

// Mode selects create or edit semantics
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// ParseMode parses "create" or "edit"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "create":
		return ModeCreate, nil
	case "edit":
		return ModeEdit, nil
	}
	return ModeCreate, fmt.Errorf("invalid mode %q, must be one of: create, edit", s)
}

// Result is the outcome of validating one field
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func pass() Result { return Result{Valid: true} }

func fail(msg string) Result { return Result{Message: msg} }

func failf(format string, args ...interface{}) Result {
	return fail(fmt.Sprintf(format, args...))
}

// Rules is the synchronous, purely functional rule engine for the user draft
type Rules struct {
	Mode Mode
	// Now returns the reference time for date bounds
	Now func() time.Time
	// StoredJoining is the date of joining already on record. In edit mode
	// an unchanged value is exempt from the joining window.
	StoredJoining string
}

// NewRules creates a rule engine for mode using the wall clock
func NewRules(mode Mode) *Rules {
	return &Rules{Mode: mode, Now: time.Now}
}

func (r *Rules) today() time.Time {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Required reports whether f must be non-empty in the current mode
func (r *Rules) Required(f models.Field) bool {
	switch f {
	case models.FieldName, models.FieldUserName, models.FieldEmail, models.FieldEmployeeID,
		models.FieldGender, models.FieldPhone, models.FieldDateOfJoining,
		models.FieldDepartment, models.FieldDesignation:
		return true
	case models.FieldPassword, models.FieldPasswordConfirmation:
		return r.Mode == ModeCreate
	}
	return false
}

// ValidateField checks value for f. The draft is consulted only by the
// cross-field rules (password confirmation) and may be nil otherwise.
func (r *Rules) ValidateField(f models.Field, value string, d *models.UserDraft) Result {
	if f != models.FieldPassword && f != models.FieldPasswordConfirmation {
		value = strings.TrimSpace(value)
	}

	switch f {
	case models.FieldPasswordConfirmation:
		return r.validateConfirmation(value, d)
	case models.FieldPassword:
		return r.validatePassword(value)
	}

	if value == "" {
		if r.Required(f) {
			return failf("%s is required", f.Label())
		}
		return pass()
	}

	switch f {
	case models.FieldName:
		return checkText(f, value, 2, 100, nameRegex, "Name may only contain letters, spaces, dots, apostrophes and hyphens")
	case models.FieldUserName:
		return checkText(f, value, 3, 30, userNameRegex, "Username may only contain letters, digits, underscores, dots and hyphens")
	case models.FieldEmail:
		return checkText(f, value, 5, 255, emailRegex, "Enter a valid email address")
	case models.FieldEmployeeID:
		return checkText(f, value, 2, 20, employeeIDRegex, "Employee ID may only contain uppercase letters, digits and hyphens")
	case models.FieldGender:
		if !models.ValidGenders[value] {
			return fail("Gender must be one of: male, female, other")
		}
	case models.FieldBirthday:
		return r.validateBirthday(value)
	case models.FieldPhone:
		if !phoneRegex.MatchString(value) {
			return fail("Enter a valid phone number")
		}
	case models.FieldAddress:
		return checkLength(f, value, 0, 500)
	case models.FieldDateOfJoining:
		if r.Mode == ModeEdit && r.StoredJoining != "" && value == r.StoredJoining {
			if _, err := time.Parse(models.DateLayout, value); err != nil {
				return fail(MsgInvalidValue)
			}
			return pass()
		}
		return r.validateJoining(value)
	case models.FieldDepartment, models.FieldDesignation, models.FieldReportTo:
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			return fail(MsgInvalidValue)
		}
	case models.FieldBankName:
		return checkLength(f, value, 0, 100)
	case models.FieldAccountNumber, models.FieldIFSC, models.FieldPAN:
		// Format problems are advisory, see Advise
		return checkLength(f, value, 0, 34)
	default:
		return fail(MsgInvalidValue)
	}
	return pass()
}

// ValidateDraft validates fields of d (every field when none are given) and
// returns the failing ones
func (r *Rules) ValidateDraft(d *models.UserDraft, fields ...models.Field) ErrorSet {
	if len(fields) == 0 {
		fields = models.AllFields
	}
	errs := make(ErrorSet)
	for _, f := range fields {
		if f == models.FieldProfileImage {
			continue
		}
		if res := r.ValidateField(f, d.Value(f), d); !res.Valid {
			errs[f] = FieldError{Message: res.Message, Source: SourceRule}
		}
	}
	return errs
}

func (r *Rules) validatePassword(value string) Result {
	if value == "" {
		if r.Mode == ModeCreate {
			return fail("Password is required")
		}
		return pass()
	}
	if len(value) < minPasswordLen {
		return failf("Password must be at least %d characters", minPasswordLen)
	}
	if len(value) > maxPasswordLen {
		return failf("Password must be at most %d characters", maxPasswordLen)
	}
	var upper, lower, digit, special bool
	for _, c := range value {
		switch {
		case unicode.IsUpper(c):
			upper = true
		case unicode.IsLower(c):
			lower = true
		case unicode.IsDigit(c):
			digit = true
		case unicode.IsPunct(c) || unicode.IsSymbol(c):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return fail("Password must contain upper and lower case letters, a digit and a special character")
	}
	return pass()
}

func (r *Rules) validateConfirmation(value string, d *models.UserDraft) Result {
	password := ""
	if d != nil {
		password = d.Password
	}
	if value == "" && password == "" {
		return pass()
	}
	if value == "" {
		return fail("Please confirm the password")
	}
	if value != password {
		return fail("Passwords do not match")
	}
	return pass()
}

func (r *Rules) validateBirthday(value string) Result {
	bday, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return fail(MsgInvalidValue)
	}
	today := r.today()
	if bday.After(today) {
		return fail("Birthday cannot be in the future")
	}
	if age(bday, today) < minAge {
		return failf("Employee must be at least %d years old", minAge)
	}
	return pass()
}

func (r *Rules) validateJoining(value string) Result {
	doj, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return fail(MsgInvalidValue)
	}
	today := r.today()
	if doj.Before(today.AddDate(-joiningPastYrs, 0, 0)) {
		return failf("Date of joining cannot be more than %d years in the past", joiningPastYrs)
	}
	if doj.After(today.AddDate(joiningAheadYrs, 0, 0)) {
		return failf("Date of joining cannot be more than %d year in the future", joiningAheadYrs)
	}
	return pass()
}

// age returns full years elapsed between birth and on
func age(birth, on time.Time) int {
	years := on.Year() - birth.Year()
	if on.Month() < birth.Month() || (on.Month() == birth.Month() && on.Day() < birth.Day()) {
		years--
	}
	return years
}

func checkLength(f models.Field, value string, min, max int) Result {
	n := len([]rune(value))
	if n < min {
		return failf("%s must be at least %d characters", f.Label(), min)
	}
	if max > 0 && n > max {
		return failf("%s must be at most %d characters", f.Label(), max)
	}
	return pass()
}

func checkText(f models.Field, value string, min, max int, re *regexp.Regexp, msg string) Result {
	if res := checkLength(f, value, min, max); !res.Valid {
		return res
	}
	if !re.MatchString(value) {
		return fail(msg)
	}
	return pass()
}
