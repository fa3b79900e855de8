package form

import (
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/upload"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/validation"
)

// StepStatus describes one step for a stepper
type StepStatus struct {
	Section
	Index    int  `json:"index"`
	Complete bool `json:"complete"`
	Current  bool `json:"current"`
}

// Snapshot is a consistent copy of the controller state
type Snapshot struct {
	Mode       validation.Mode       `json:"-"`
	Phase      Phase                 `json:"phase"`
	Step       int                   `json:"step"`
	Steps      []StepStatus          `json:"steps"`
	UserID     int64                 `json:"user_id,omitempty"`
	Draft      *models.UserDraft     `json:"draft"`
	Errors     validation.ErrorSet   `json:"errors"`
	Warnings   validation.ErrorSet   `json:"warnings"`
	Touched    map[models.Field]bool `json:"touched"`
	Notices    []string              `json:"notices,omitempty"`
	Upload     upload.State          `json:"upload"`
	HasChanges bool                  `json:"has_changes"`
	Version    uint64                `json:"version"`
}

// Submitting reports whether interactive controls must be disabled
func (s *Snapshot) Submitting() bool {
	return s.Phase == PhaseSubmitting
}

// Snapshot returns the current state
func (c *Controller) Snapshot() Snapshot {
	st := c.deps.Uploads.State()

	c.mu.Lock()
	defer c.mu.Unlock()

	touched := make(map[models.Field]bool, len(c.touched))
	for f, v := range c.touched {
		touched[f] = v
	}
	return Snapshot{
		Mode:       c.mode,
		Phase:      c.phase,
		Step:       c.step,
		Steps:      c.stepsLocked(),
		UserID:     c.userID,
		Draft:      c.draft.Clone(),
		Errors:     c.errs.Clone(),
		Warnings:   c.warnings.Clone(),
		Touched:    touched,
		Notices:    append([]string(nil), c.notices...),
		Upload:     st,
		HasChanges: c.hasChangesLocked(),
		Version:    c.version,
	}
}

func (c *Controller) stepsLocked() []StepStatus {
	out := make([]StepStatus, len(c.sections))
	for i, s := range c.sections {
		out[i] = StepStatus{
			Section:  s,
			Index:    i + 1,
			Complete: c.completeLocked(s),
			Current:  i+1 == c.step,
		}
	}
	return out
}

// completeLocked reports whether every required field of s has a value and
// no error
func (c *Controller) completeLocked(s Section) bool {
	for _, f := range s.Fields {
		if f == models.FieldProfileImage {
			continue
		}
		if c.errs.Has(f) {
			return false
		}
		if c.rules.Required(f) && c.draft.Value(f) == "" {
			return false
		}
	}
	return true
}
