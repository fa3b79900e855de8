package models

import "time"

// Department is an organisational unit
type Department struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Designation is a job title that belongs to exactly one department
type Designation struct {
	ID           int64     `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	DepartmentID int64     `json:"department_id" db:"department_id"`
	Level        int       `json:"level" db:"level"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Option is the normalized shape of every select choice in the wizard
type Option struct {
	ID    int64      `json:"id"`
	Label string     `json:"label"`
	Meta  OptionMeta `json:"meta,omitempty"`
}

// OptionMeta carries the attributes needed for filtering and ordering
type OptionMeta struct {
	DepartmentID int64  `json:"department_id,omitempty"`
	Level        int    `json:"level,omitempty"`
	Detail       string `json:"detail,omitempty"`
}

// DepartmentOption converts a department into an option
func DepartmentOption(d *Department) Option {
	return Option{ID: d.ID, Label: d.Name}
}

// DesignationOption converts a designation into an option
func DesignationOption(d *Designation) Option {
	return Option{
		ID:    d.ID,
		Label: d.Title,
		Meta:  OptionMeta{DepartmentID: d.DepartmentID, Level: d.Level},
	}
}

// CandidateOption converts a report-to candidate into an option
func CandidateOption(c *ReportToCandidate) Option {
	return Option{
		ID:    c.ID,
		Label: c.Name,
		Meta:  OptionMeta{DepartmentID: c.DepartmentID, Level: c.Level, Detail: c.Designation},
	}
}
