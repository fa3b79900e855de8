package form

import "github.com/Linking-Dots/Aero-HR-sub002/internal/models"

// Section is one wizard step
type Section struct {
	ID     string         `json:"id"`
	Title  string         `json:"title"`
	Fields []models.Field `json:"fields"`
}

var (
	SectionPersonal = Section{
		ID:    "personal",
		Title: "Personal",
		Fields: []models.Field{
			models.FieldName, models.FieldUserName, models.FieldEmail,
			models.FieldEmployeeID, models.FieldGender, models.FieldBirthday,
		},
	}
	SectionContact = Section{
		ID:     "contact",
		Title:  "Contact",
		Fields: []models.Field{models.FieldPhone, models.FieldAddress},
	}
	SectionEmployment = Section{
		ID:    "employment",
		Title: "Employment",
		Fields: []models.Field{
			models.FieldDateOfJoining, models.FieldDepartment,
			models.FieldDesignation, models.FieldReportTo,
		},
	}
	SectionSecurity = Section{
		ID:     "security",
		Title:  "Security",
		Fields: []models.Field{models.FieldPassword, models.FieldPasswordConfirmation},
	}
	SectionProfile = Section{
		ID:    "profile",
		Title: "Profile",
		Fields: []models.Field{
			models.FieldProfileImage, models.FieldBankName, models.FieldAccountNumber,
			models.FieldIFSC, models.FieldPAN,
		},
	}
)

// Sections returns the wizard steps in order
func Sections(includeProfile bool) []Section {
	out := []Section{SectionPersonal, SectionContact, SectionEmployment, SectionSecurity}
	if includeProfile {
		out = append(out, SectionProfile)
	}
	return out
}

// StepOf returns the 1-based step holding f, or 0
func StepOf(sections []Section, f models.Field) int {
	for i, s := range sections {
		for _, sf := range s.Fields {
			if sf == f {
				return i + 1
			}
		}
	}
	return 0
}

// scalarFields returns the draft fields of sections, without the image
func scalarFields(sections []Section) []models.Field {
	var out []models.Field
	for _, s := range sections {
		for _, f := range s.Fields {
			if f != models.FieldProfileImage {
				out = append(out, f)
			}
		}
	}
	return out
}
