package models

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrUnknownField is returned when a field name is not part of the draft
var ErrUnknownField = errors.New("unknown field")

// DateLayout is the wire format of every date field
const DateLayout = "2006-01-02"

// UserDraft is the in-progress record edited by the wizard. All values are
// kept as the raw strings typed by the user; conversion happens when the
// payload is composed or the server parses it.
type UserDraft struct {
	Name          string `json:"name"`
	UserName      string `json:"user_name"`
	Email         string `json:"email"`
	EmployeeID    string `json:"employee_id"`
	Gender        string `json:"gender"`
	Birthday      string `json:"birthday,omitempty"`
	Phone         string `json:"phone"`
	Address       string `json:"address,omitempty"`
	DateOfJoining string `json:"date_of_joining"`
	Department    string `json:"department"`
	Designation   string `json:"designation"`
	ReportTo      string `json:"report_to,omitempty"`

	// Write-only credentials
	Password             string `json:"-"`
	PasswordConfirmation string `json:"-"`

	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	IFSC          string `json:"ifsc_code,omitempty"`
	PAN           string `json:"pan_number,omitempty"`

	ProfileImage *Attachment `json:"-"`
}

func (d *UserDraft) ref(f Field) (*string, bool) {
	switch f {
	case FieldName:
		return &d.Name, true
	case FieldUserName:
		return &d.UserName, true
	case FieldEmail:
		return &d.Email, true
	case FieldEmployeeID:
		return &d.EmployeeID, true
	case FieldGender:
		return &d.Gender, true
	case FieldBirthday:
		return &d.Birthday, true
	case FieldPhone:
		return &d.Phone, true
	case FieldAddress:
		return &d.Address, true
	case FieldDateOfJoining:
		return &d.DateOfJoining, true
	case FieldDepartment:
		return &d.Department, true
	case FieldDesignation:
		return &d.Designation, true
	case FieldReportTo:
		return &d.ReportTo, true
	case FieldPassword:
		return &d.Password, true
	case FieldPasswordConfirmation:
		return &d.PasswordConfirmation, true
	case FieldBankName:
		return &d.BankName, true
	case FieldAccountNumber:
		return &d.AccountNumber, true
	case FieldIFSC:
		return &d.IFSC, true
	case FieldPAN:
		return &d.PAN, true
	}
	return nil, false
}

// Value returns the current value of f, or "" for unknown fields
func (d *UserDraft) Value(f Field) string {
	if p, ok := d.ref(f); ok {
		return *p
	}
	return ""
}

// Set assigns value to f
func (d *UserDraft) Set(f Field, value string) error {
	p, ok := d.ref(f)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	*p = value
	return nil
}

// Clone returns a deep copy of the draft
func (d *UserDraft) Clone() *UserDraft {
	c := *d
	if d.ProfileImage != nil {
		img := *d.ProfileImage
		c.ProfileImage = &img
	}
	return &c
}

// Values returns every scalar field as a map, skipping empty values
func (d *UserDraft) Values() map[Field]string {
	out := make(map[Field]string, len(AllFields))
	for _, f := range AllFields {
		if v := d.Value(f); v != "" {
			out[f] = v
		}
	}
	return out
}

// ID parses an id-valued field. Empty values return 0 with no error.
func (d *UserDraft) ID(f Field) (int64, error) {
	v := d.Value(f)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

// DraftFromUser seeds a draft from an existing record for edit mode.
// Credentials stay empty because they are never echoed back.
func DraftFromUser(u *User) *UserDraft {
	d := &UserDraft{
		Name:          u.Name,
		UserName:      u.UserName,
		Email:         u.Email,
		EmployeeID:    u.EmployeeID,
		Gender:        u.Gender,
		Phone:         u.Phone,
		Address:       u.Address,
		Department:    formatID(u.DepartmentID),
		Designation:   formatID(u.DesignationID),
		ReportTo:      formatIDPtr(u.ReportTo),
		BankName:      u.BankName,
		AccountNumber: u.AccountNumber,
		IFSC:          u.IFSC,
		PAN:           u.PAN,
	}
	if u.Birthday != nil {
		d.Birthday = u.Birthday.Format(DateLayout)
	}
	if !u.DateOfJoining.IsZero() {
		d.DateOfJoining = u.DateOfJoining.Format(DateLayout)
	}
	return d
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func formatIDPtr(id *int64) string {
	if id == nil {
		return ""
	}
	return formatID(*id)
}
