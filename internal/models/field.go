package models

// Field names a single wizard input. The string value is the wire name used
// in multipart payloads, JSON error maps and uniqueness checks.
type Field string

const (
	FieldName                 Field = "name"
	FieldUserName             Field = "user_name"
	FieldEmail                Field = "email"
	FieldEmployeeID           Field = "employee_id"
	FieldGender               Field = "gender"
	FieldBirthday             Field = "birthday"
	FieldPhone                Field = "phone"
	FieldAddress              Field = "address"
	FieldDateOfJoining        Field = "date_of_joining"
	FieldDepartment           Field = "department"
	FieldDesignation          Field = "designation"
	FieldReportTo             Field = "report_to"
	FieldPassword             Field = "password"
	FieldPasswordConfirmation Field = "password_confirmation"
	FieldProfileImage         Field = "profile_image"
	FieldBankName             Field = "bank_name"
	FieldAccountNumber        Field = "account_number"
	FieldIFSC                 Field = "ifsc_code"
	FieldPAN                  Field = "pan_number"
)

// AllFields lists every scalar field in display order. The profile image is
// an attachment and is not part of this list.
var AllFields = []Field{
	FieldName, FieldUserName, FieldEmail, FieldEmployeeID, FieldGender, FieldBirthday,
	FieldPhone, FieldAddress,
	FieldDateOfJoining, FieldDepartment, FieldDesignation, FieldReportTo,
	FieldPassword, FieldPasswordConfirmation,
	FieldBankName, FieldAccountNumber, FieldIFSC, FieldPAN,
}

// UniqueFields are verified against existing records server-side
var UniqueFields = map[Field]bool{
	FieldUserName:   true,
	FieldEmail:      true,
	FieldEmployeeID: true,
}

// WriteOnlyFields are never echoed back to clients
var WriteOnlyFields = map[Field]bool{
	FieldPassword:             true,
	FieldPasswordConfirmation: true,
}

// FieldLabels holds the human readable label for each field
var FieldLabels = map[Field]string{
	FieldName:                 "Full name",
	FieldUserName:             "Username",
	FieldEmail:                "Email",
	FieldEmployeeID:           "Employee ID",
	FieldGender:               "Gender",
	FieldBirthday:             "Birthday",
	FieldPhone:                "Phone",
	FieldAddress:              "Address",
	FieldDateOfJoining:        "Date of joining",
	FieldDepartment:           "Department",
	FieldDesignation:          "Designation",
	FieldReportTo:             "Reports to",
	FieldPassword:             "Password",
	FieldPasswordConfirmation: "Confirm password",
	FieldProfileImage:         "Profile image",
	FieldBankName:             "Bank name",
	FieldAccountNumber:        "Account number",
	FieldIFSC:                 "IFSC code",
	FieldPAN:                  "PAN",
}

// Label returns the display label, falling back to the wire name
func (f Field) Label() string {
	if l, ok := FieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// IsKnown reports whether f is a scalar draft field
func (f Field) IsKnown() bool {
	for _, k := range AllFields {
		if k == f {
			return true
		}
	}
	return false
}

// Gender values accepted by the wizard
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// ValidGenders defines allowed gender values
var ValidGenders = map[string]bool{
	GenderMale:   true,
	GenderFemale: true,
	GenderOther:  true,
}
