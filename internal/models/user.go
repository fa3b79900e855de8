package models

import (
	"time"
)

// User represents an employee account in the system
type User struct {
	ID            int64      `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	UserName      string     `json:"user_name" db:"user_name"`
	Email         string     `json:"email" db:"email"`
	EmployeeID    string     `json:"employee_id" db:"employee_id"`
	Gender        string     `json:"gender" db:"gender"`
	Birthday      *time.Time `json:"birthday,omitempty" db:"birthday"`
	Phone         string     `json:"phone" db:"phone"`
	Address       string     `json:"address,omitempty" db:"address"`
	DateOfJoining time.Time  `json:"date_of_joining" db:"date_of_joining"`
	DepartmentID  int64      `json:"department_id" db:"department_id"`
	DesignationID int64      `json:"designation_id" db:"designation_id"`
	ReportTo      *int64     `json:"report_to,omitempty" db:"report_to"`
	ProfileImage  string     `json:"profile_image,omitempty" db:"profile_image"`
	BankName      string     `json:"bank_name,omitempty" db:"bank_name"`
	AccountNumber string     `json:"account_number,omitempty" db:"account_number"`
	IFSC          string     `json:"ifsc_code,omitempty" db:"ifsc_code"`
	PAN           string     `json:"pan_number,omitempty" db:"pan_number"`
	PasswordHash  []byte     `json:"-" db:"password_hash"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// ReportToCandidate is a user that can be selected as a manager
type ReportToCandidate struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	DepartmentID int64  `json:"department_id"`
	Designation  string `json:"designation"`
	Level        int    `json:"level"` // seniority, higher is more senior
}

// Attachment is an uploaded binary, optional on the draft
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
	URL         string `json:"url,omitempty"` // set once eagerly uploaded
}

// Upload records a stored profile image
type Upload struct {
	ID          string    `json:"id" db:"id"`
	FileName    string    `json:"file_name" db:"file_name"`
	ContentType string    `json:"content_type" db:"content_type"`
	Size        int64     `json:"size" db:"size"`
	Path        string    `json:"-" db:"path"`
	URL         string    `json:"url" db:"url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Availability is the answer of a uniqueness check
type Availability struct {
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}

// SubmitResult is the success envelope of the user create/update API
type SubmitResult struct {
	User     *User    `json:"user"`
	Messages []string `json:"messages"`
}
