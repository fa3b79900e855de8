// Package view composes the dialog view model of the user wizard from a
// controller snapshot. It holds no state of its own.
package view

import (
	"fmt"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/form"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/upload"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/validation"
)

// Kind is the input widget used for a field
type Kind string

const (
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindTel      Kind = "tel"
	KindDate     Kind = "date"
	KindTextarea Kind = "textarea"
	KindSelect   Kind = "select"
	KindPassword Kind = "password"
	KindFile     Kind = "file"
)

var fieldKinds = map[models.Field]Kind{
	models.FieldEmail:                KindEmail,
	models.FieldGender:               KindSelect,
	models.FieldBirthday:             KindDate,
	models.FieldPhone:                KindTel,
	models.FieldAddress:              KindTextarea,
	models.FieldDateOfJoining:        KindDate,
	models.FieldDepartment:           KindSelect,
	models.FieldDesignation:          KindSelect,
	models.FieldReportTo:             KindSelect,
	models.FieldPassword:             KindPassword,
	models.FieldPasswordConfirmation: KindPassword,
	models.FieldProfileImage:         KindFile,
}

var genderOptions = []models.Option{
	{ID: 1, Label: "Male", Meta: models.OptionMeta{Detail: models.GenderMale}},
	{ID: 2, Label: "Female", Meta: models.OptionMeta{Detail: models.GenderFemale}},
	{ID: 3, Label: "Other", Meta: models.OptionMeta{Detail: models.GenderOther}},
}

// Choices are the option lists for the select fields
type Choices struct {
	Departments  []models.Option `json:"departments"`
	Designations []models.Option `json:"designations"`
	ReportTo     []models.Option `json:"report_to"`
}

// Field is one rendered input
type Field struct {
	Name     models.Field    `json:"name"`
	Label    string          `json:"label"`
	Kind     Kind            `json:"kind"`
	Value    string          `json:"value"`
	Required bool            `json:"required"`
	Error    string          `json:"error,omitempty"`
	Warning  string          `json:"warning,omitempty"`
	Disabled bool            `json:"disabled"`
	Options  []models.Option `json:"options,omitempty"`
}

// Section is one rendered step
type Section struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Active bool    `json:"active"`
	Fields []Field `json:"fields"`
}

// Step is one stepper entry
type Step struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Complete bool   `json:"complete"`
	Current  bool   `json:"current"`
}

// Upload is the profile image widget
type Upload struct {
	FileName   string   `json:"file_name,omitempty"`
	PreviewURL string   `json:"preview_url,omitempty"`
	Progress   int      `json:"progress"`
	Uploading  bool     `json:"is_uploading"`
	Error      string   `json:"error,omitempty"`
	Accept     []string `json:"accept"`
	MaxSize    int64    `json:"max_size"`
	Disabled   bool     `json:"disabled"`
}

// Issue is a validation summary line
type Issue struct {
	Field   models.Field `json:"field"`
	Label   string       `json:"label"`
	Message string       `json:"message"`
	Step    int          `json:"step"`
}

// Action is a dialog button
type Action struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Primary  bool   `json:"primary,omitempty"`
	Disabled bool   `json:"disabled"`
}

// Dialog is the complete view model
type Dialog struct {
	Title      string    `json:"title"`
	Phase      string    `json:"phase"`
	Step       int       `json:"step"`
	Stepper    []Step    `json:"stepper"`
	Sections   []Section `json:"sections"`
	Upload     Upload    `json:"upload"`
	Summary    []Issue   `json:"summary"`
	Warnings   []Issue   `json:"warnings,omitempty"`
	Notices    []string  `json:"notices,omitempty"`
	Actions    []Action  `json:"actions"`
	Submitting bool      `json:"is_submitting"`
	HasChanges bool      `json:"has_changes"`
}

// Compose renders snap with the given option lists
func Compose(snap form.Snapshot, choices Choices, limits upload.Limits) Dialog {
	rules := validation.NewRules(snap.Mode)
	submitting := snap.Submitting()
	sections := make([]form.Section, len(snap.Steps))

	d := Dialog{
		Title:      "Add user",
		Phase:      snap.Phase.String(),
		Step:       snap.Step,
		Submitting: submitting,
		HasChanges: snap.HasChanges,
		Notices:    snap.Notices,
	}
	if snap.Mode == validation.ModeEdit {
		d.Title = "Edit user"
	}

	for i, st := range snap.Steps {
		sections[i] = st.Section
		d.Stepper = append(d.Stepper, Step{Index: st.Index, Title: st.Title, Complete: st.Complete, Current: st.Current})

		sec := Section{ID: st.ID, Title: st.Title, Active: st.Current}
		for _, f := range st.Fields {
			if f == models.FieldProfileImage {
				continue
			}
			sec.Fields = append(sec.Fields, composeField(f, snap, choices, rules, submitting))
		}
		d.Sections = append(d.Sections, sec)
	}

	d.Upload = Upload{
		PreviewURL: snap.Upload.PreviewURL,
		Progress:   snap.Upload.Progress,
		Uploading:  snap.Upload.Uploading,
		Error:      snap.Errors.Message(models.FieldProfileImage),
		Accept:     limits.AllowedTypes,
		MaxSize:    limits.MaxSize,
		Disabled:   submitting,
	}
	if snap.Upload.File != nil {
		d.Upload.FileName = snap.Upload.File.Name
	}

	for _, f := range snap.Errors.Fields() {
		d.Summary = append(d.Summary, Issue{Field: f, Label: f.Label(), Message: snap.Errors.Message(f), Step: form.StepOf(sections, f)})
	}
	for _, f := range snap.Warnings.Fields() {
		d.Warnings = append(d.Warnings, Issue{Field: f, Label: f.Label(), Message: snap.Warnings.Message(f), Step: form.StepOf(sections, f)})
	}

	d.Actions = actions(snap, submitting, len(snap.Steps))
	return d
}

func composeField(f models.Field, snap form.Snapshot, choices Choices, rules *validation.Rules, submitting bool) Field {
	kind, ok := fieldKinds[f]
	if !ok {
		kind = KindText
	}
	out := Field{
		Name:     f,
		Label:    f.Label(),
		Kind:     kind,
		Required: rules.Required(f),
		Disabled: submitting,
	}
	// credentials are write-only
	if !models.WriteOnlyFields[f] {
		out.Value = snap.Draft.Value(f)
	}
	if snap.Touched[f] || snap.Errors[f].Source == validation.SourceServer {
		out.Error = snap.Errors.Message(f)
	}
	out.Warning = snap.Warnings.Message(f)

	switch f {
	case models.FieldGender:
		out.Options = genderOptions
	case models.FieldDepartment:
		out.Options = choices.Departments
	case models.FieldDesignation:
		out.Options = choices.Designations
		out.Disabled = submitting || snap.Draft.Department == ""
	case models.FieldReportTo:
		out.Options = choices.ReportTo
		out.Disabled = submitting || snap.Draft.Department == ""
	}
	return out
}

func actions(snap form.Snapshot, submitting bool, steps int) []Action {
	out := []Action{
		{ID: "cancel", Label: "Cancel", Disabled: submitting},
		{ID: "previous", Label: "Back", Disabled: submitting || snap.Step <= 1},
	}
	if snap.Step < steps {
		return append(out, Action{ID: "next", Label: "Next", Primary: true, Disabled: submitting})
	}

	label := "Create user"
	if snap.Mode == validation.ModeEdit {
		label = "Update user"
	}
	if submitting {
		label = "Saving..."
	}
	return append(out, Action{ID: "submit", Label: label, Primary: true, Disabled: submitting})
}

// StepTitle returns "Step n of m: Title"
func (d Dialog) StepTitle() string {
	for _, s := range d.Stepper {
		if s.Current {
			return fmt.Sprintf("Step %d of %d: %s", s.Index, len(d.Stepper), s.Title)
		}
	}
	return ""
}
