package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mu           sync.Mutex
	Users        map[int64]*models.User
	Designations map[int64]*models.Designation // used to rank candidates
	InsertError  error
	QueryError   error
	ExistsCalls  int
	nextID       int64
}

// Verify interface compliance
var _ repository.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:        make(map[int64]*models.User),
		Designations: make(map[int64]*models.Designation),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertError != nil {
		return m.InsertError
	}
	m.nextID++
	for m.Users[m.nextID] != nil {
		m.nextID++
	}
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.Users[user.ID] = &stored
	return nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertError != nil {
		return m.InsertError
	}
	old, ok := m.Users[user.ID]
	if !ok {
		return models.ErrNotFound
	}
	stored := *user
	if len(stored.PasswordHash) == 0 {
		stored.PasswordHash = old.PasswordHash
	}
	stored.UpdatedAt = time.Now()
	m.Users[user.ID] = &stored
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (m *MockUserRepository) FieldExists(ctx context.Context, field models.Field, value string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExistsCalls++
	if m.QueryError != nil {
		return false, m.QueryError
	}
	for id, u := range m.Users {
		if id == excludeID {
			continue
		}
		var stored string
		switch field {
		case models.FieldUserName:
			stored = u.UserName
		case models.FieldEmail:
			stored = u.Email
		case models.FieldEmployeeID:
			stored = u.EmployeeID
		default:
			return false, models.ErrUnknownField
		}
		if strings.EqualFold(stored, value) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockUserRepository) ReportToCandidates(ctx context.Context, departmentID, excludeID int64) ([]*models.ReportToCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	var out []*models.ReportToCandidate
	for id, u := range m.Users {
		if id == excludeID || u.DepartmentID != departmentID {
			continue
		}
		c := &models.ReportToCandidate{ID: id, Name: u.Name, Email: u.Email, DepartmentID: u.DepartmentID}
		if d, ok := m.Designations[u.DesignationID]; ok {
			c.Designation = d.Title
			c.Level = d.Level
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level > out[j].Level
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// MockDepartmentRepository is a mock implementation of DepartmentRepository
type MockDepartmentRepository struct {
	Departments map[int64]*models.Department
	QueryError  error
}

var _ repository.DepartmentRepository = (*MockDepartmentRepository)(nil)

func NewMockDepartmentRepository() *MockDepartmentRepository {
	return &MockDepartmentRepository{Departments: make(map[int64]*models.Department)}
}

func (m *MockDepartmentRepository) List(ctx context.Context) ([]*models.Department, error) {
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	out := make([]*models.Department, 0, len(m.Departments))
	for _, d := range m.Departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockDepartmentRepository) Exists(ctx context.Context, id int64) (bool, error) {
	if m.QueryError != nil {
		return false, m.QueryError
	}
	_, ok := m.Departments[id]
	return ok, nil
}

// MockDesignationRepository is a mock implementation of DesignationRepository
type MockDesignationRepository struct {
	Designations map[int64]*models.Designation
	QueryError   error
}

var _ repository.DesignationRepository = (*MockDesignationRepository)(nil)

func NewMockDesignationRepository() *MockDesignationRepository {
	return &MockDesignationRepository{Designations: make(map[int64]*models.Designation)}
}

func (m *MockDesignationRepository) ListByDepartment(ctx context.Context, departmentID int64) ([]*models.Designation, error) {
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	var out []*models.Designation
	for _, d := range m.Designations {
		if departmentID == 0 || d.DepartmentID == departmentID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level > out[j].Level
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func (m *MockDesignationRepository) GetByID(ctx context.Context, id int64) (*models.Designation, error) {
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	return m.Designations[id], nil
}

// MockUploadRepository is a mock implementation of UploadRepository
type MockUploadRepository struct {
	mu          sync.Mutex
	Uploads     map[string]*models.Upload // keyed by URL
	InsertError error
}

var _ repository.UploadRepository = (*MockUploadRepository)(nil)

func NewMockUploadRepository() *MockUploadRepository {
	return &MockUploadRepository{Uploads: make(map[string]*models.Upload)}
}

func (m *MockUploadRepository) Create(ctx context.Context, upload *models.Upload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertError != nil {
		return m.InsertError
	}
	m.Uploads[upload.URL] = upload
	return nil
}

func (m *MockUploadRepository) GetByURL(ctx context.Context, url string) (*models.Upload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Uploads[url], nil
}

// Repositories bundles fresh mocks the way repository.New bundles the real ones
type Repositories struct {
	User        *MockUserRepository
	Department  *MockDepartmentRepository
	Designation *MockDesignationRepository
	Upload      *MockUploadRepository
}

// NewRepositories creates a set of empty mocks
func NewRepositories() *Repositories {
	return &Repositories{
		User:        NewMockUserRepository(),
		Department:  NewMockDepartmentRepository(),
		Designation: NewMockDesignationRepository(),
		Upload:      NewMockUploadRepository(),
	}
}

// Repos exposes the mocks through the repository interfaces
func (r *Repositories) Repos() *repository.Repositories {
	return &repository.Repositories{
		User:        r.User,
		Department:  r.Department,
		Designation: r.Designation,
		Upload:      r.Upload,
	}
}

// SeedOrg fills two departments with designations: Engineering (3) with
// Senior Developer (9, level 5) and Engineering Manager (10, level 8), and
// Finance (4) with Accountant (20, level 3)
func (r *Repositories) SeedOrg() {
	r.Department.Departments[3] = &models.Department{ID: 3, Name: "Engineering"}
	r.Department.Departments[4] = &models.Department{ID: 4, Name: "Finance"}
	for _, d := range []*models.Designation{
		{ID: 9, Title: "Senior Developer", DepartmentID: 3, Level: 5},
		{ID: 10, Title: "Engineering Manager", DepartmentID: 3, Level: 8},
		{ID: 20, Title: "Accountant", DepartmentID: 4, Level: 3},
	} {
		r.Designation.Designations[d.ID] = d
		r.User.Designations[d.ID] = d
	}
}
