package repository

import (
	"context"
	"errors"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/database"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/lib/pq"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	FieldExists(ctx context.Context, field models.Field, value string, excludeID int64) (bool, error)
	ReportToCandidates(ctx context.Context, departmentID, excludeID int64) ([]*models.ReportToCandidate, error)
}

// DepartmentRepository defines the interface for department data operations
type DepartmentRepository interface {
	List(ctx context.Context) ([]*models.Department, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// DesignationRepository defines the interface for designation data operations
type DesignationRepository interface {
	ListByDepartment(ctx context.Context, departmentID int64) ([]*models.Designation, error)
	GetByID(ctx context.Context, id int64) (*models.Designation, error)
}

// UploadRepository defines the interface for stored upload records
type UploadRepository interface {
	Create(ctx context.Context, upload *models.Upload) error
	GetByURL(ctx context.Context, url string) (*models.Upload, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	User        UserRepository
	Department  DepartmentRepository
	Designation DesignationRepository
	Upload      UploadRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepo(db),
		Department:  NewDepartmentRepo(db),
		Designation: NewDesignationRepo(db),
		Upload:      NewUploadRepo(db),
	}
}

const uniqueViolation = "23505"

// uniqueConstraints maps the unique indexes of the users table to the field
// they guard
var uniqueConstraints = map[string]models.Field{
	"users_user_name_key":   models.FieldUserName,
	"users_email_key":       models.FieldEmail,
	"users_employee_id_key": models.FieldEmployeeID,
}

// UniqueViolation reports which unique field a failed insert or update
// collided with. It covers the race between the availability check and
// the write.
func UniqueViolation(err error) (models.Field, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return "", false
	}
	f, ok := uniqueConstraints[pqErr.Constraint]
	return f, ok
}
