package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/database"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
)

const userColumns = `id, name, user_name, email, employee_id, gender, birthday, phone, address,
	date_of_joining, department_id, designation_id, report_to, profile_image,
	bank_name, account_number, ifsc_code, pan_number, password_hash, created_at, updated_at`

// uniqueColumns whitelists the columns FieldExists may query
var uniqueColumns = map[models.Field]string{
	models.FieldUserName:   "user_name",
	models.FieldEmail:      "email",
	models.FieldEmployeeID: "employee_id",
}

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

// Create inserts a new user and fills in its generated id and timestamps
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, user_name, email, employee_id, gender, birthday, phone, address,
			date_of_joining, department_id, designation_id, report_to, profile_image,
			bank_name, account_number, ifsc_code, pan_number, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19)
		RETURNING id
	`
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.UserName, user.Email, user.EmployeeID, user.Gender, user.Birthday,
		user.Phone, user.Address, user.DateOfJoining, user.DepartmentID, user.DesignationID,
		user.ReportTo, user.ProfileImage, user.BankName, user.AccountNumber, user.IFSC, user.PAN,
		user.PasswordHash, now,
	).Scan(&user.ID)
	if err != nil {
		return err
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// Update overwrites a user. An empty password hash keeps the stored one.
func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			name = $2, user_name = $3, email = $4, employee_id = $5, gender = $6, birthday = $7,
			phone = $8, address = $9, date_of_joining = $10, department_id = $11,
			designation_id = $12, report_to = $13, profile_image = $14, bank_name = $15,
			account_number = $16, ifsc_code = $17, pan_number = $18,
			password_hash = COALESCE($19, password_hash), updated_at = $20
		WHERE id = $1
	`
	var hash any
	if len(user.PasswordHash) > 0 {
		hash = user.PasswordHash
	}
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.UserName, user.Email, user.EmployeeID, user.Gender, user.Birthday,
		user.Phone, user.Address, user.DateOfJoining, user.DepartmentID, user.DesignationID,
		user.ReportTo, user.ProfileImage, user.BankName, user.AccountNumber, user.IFSC, user.PAN,
		hash, now,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	user.UpdatedAt = now
	return nil
}

// GetByID retrieves a user by ID, nil when absent
func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var (
		user     models.User
		birthday sql.NullTime
		reportTo sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.UserName, &user.Email, &user.EmployeeID, &user.Gender,
		&birthday, &user.Phone, &user.Address, &user.DateOfJoining, &user.DepartmentID,
		&user.DesignationID, &reportTo, &user.ProfileImage, &user.BankName, &user.AccountNumber,
		&user.IFSC, &user.PAN, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if birthday.Valid {
		user.Birthday = &birthday.Time
	}
	if reportTo.Valid {
		user.ReportTo = &reportTo.Int64
	}
	return &user, nil
}

// FieldExists checks case-insensitively whether another user already holds
// value in a unique column
func (r *userRepo) FieldExists(ctx context.Context, field models.Field, value string, excludeID int64) (bool, error) {
	column, ok := uniqueColumns[field]
	if !ok {
		return false, fmt.Errorf("%w: %s", models.ErrUnknownField, field)
	}
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM users WHERE lower(%s) = lower($1) AND id <> $2)", column)

	var exists bool
	err := r.db.QueryRowContext(ctx, query, value, excludeID).Scan(&exists)
	return exists, err
}

// ReportToCandidates lists the users of a department, most senior first
func (r *userRepo) ReportToCandidates(ctx context.Context, departmentID, excludeID int64) ([]*models.ReportToCandidate, error) {
	query := `
		SELECT u.id, u.name, u.email, u.department_id, d.title, d.level
		FROM users u
		JOIN designations d ON d.id = u.designation_id
		WHERE u.department_id = $1 AND u.id <> $2
		ORDER BY d.level DESC, lower(u.name) ASC
	`
	rows, err := r.db.QueryContext(ctx, query, departmentID, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ReportToCandidate
	for rows.Next() {
		var c models.ReportToCandidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.DepartmentID, &c.Designation, &c.Level); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
