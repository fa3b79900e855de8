package repository

import (
	"context"
	"database/sql"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/database"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
)

// departmentRepo is the concrete implementation of DepartmentRepository
type departmentRepo struct {
	db *database.DB
}

// NewDepartmentRepo creates a new department repository
func NewDepartmentRepo(db *database.DB) DepartmentRepository {
	return &departmentRepo{db: db}
}

// List returns every department ordered by name
func (r *departmentRepo) List(ctx context.Context) ([]*models.Department, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, created_at FROM departments ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Department
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// Exists checks if a department with the given ID exists
func (r *departmentRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM departments WHERE id = $1)", id).Scan(&exists)
	return exists, err
}

// designationRepo is the concrete implementation of DesignationRepository
type designationRepo struct {
	db *database.DB
}

// NewDesignationRepo creates a new designation repository
func NewDesignationRepo(db *database.DB) DesignationRepository {
	return &designationRepo{db: db}
}

// ListByDepartment returns the designations of a department, or all of them
// when departmentID is 0
func (r *designationRepo) ListByDepartment(ctx context.Context, departmentID int64) ([]*models.Designation, error) {
	query := `
		SELECT id, title, department_id, level, created_at FROM designations
		WHERE $1 = 0 OR department_id = $1
		ORDER BY level DESC, title
	`
	rows, err := r.db.QueryContext(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Designation
	for rows.Next() {
		var d models.Designation
		if err := rows.Scan(&d.ID, &d.Title, &d.DepartmentID, &d.Level, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// GetByID retrieves a designation by ID, nil when absent
func (r *designationRepo) GetByID(ctx context.Context, id int64) (*models.Designation, error) {
	var d models.Designation
	err := r.db.QueryRowContext(ctx,
		"SELECT id, title, department_id, level, created_at FROM designations WHERE id = $1", id,
	).Scan(&d.ID, &d.Title, &d.DepartmentID, &d.Level, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
