package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/service"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/upload"
)

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mu         sync.Mutex
	CreateFunc func(ctx context.Context, in *service.UserInput) (*models.SubmitResult, error)
	UpdateFunc func(ctx context.Context, id int64, in *service.UserInput) (*models.SubmitResult, error)
	Users      map[int64]*models.User
	Taken      map[models.Field]map[string]bool
	CheckError error
	Created    []*service.UserInput
	Updated    []*service.UserInput
}

// Verify interface compliance
var _ service.UserService = (*MockUserService)(nil)

func NewMockUserService() *MockUserService {
	return &MockUserService{
		Users: make(map[int64]*models.User),
		Taken: make(map[models.Field]map[string]bool),
	}
}

// Take marks value as used for field
func (m *MockUserService) Take(field models.Field, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Taken[field] == nil {
		m.Taken[field] = make(map[string]bool)
	}
	m.Taken[field][strings.ToLower(value)] = true
}

func (m *MockUserService) Create(ctx context.Context, in *service.UserInput) (*models.SubmitResult, error) {
	m.mu.Lock()
	m.Created = append(m.Created, in)
	n := len(m.Created)
	fn := m.CreateFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, in)
	}
	user := &models.User{
		ID:       int64(100 + n),
		Name:     in.Values[models.FieldName],
		UserName: in.Values[models.FieldUserName],
		Email:    in.Values[models.FieldEmail],
	}
	return &models.SubmitResult{User: user, Messages: []string{"User created successfully"}}, nil
}

func (m *MockUserService) Update(ctx context.Context, id int64, in *service.UserInput) (*models.SubmitResult, error) {
	m.mu.Lock()
	m.Updated = append(m.Updated, in)
	fn := m.UpdateFunc
	existing := m.Users[id]
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, id, in)
	}
	if existing == nil {
		return nil, models.ErrNotFound
	}
	user := *existing
	if name, ok := in.Values[models.FieldName]; ok {
		user.Name = name
	}
	return &models.SubmitResult{User: &user, Messages: []string{"User updated successfully"}}, nil
}

func (m *MockUserService) Get(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (m *MockUserService) CheckAvailability(ctx context.Context, field models.Field, value string, excludeID int64) (models.Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CheckError != nil {
		return models.Availability{}, m.CheckError
	}
	if !models.UniqueFields[field] {
		return models.Availability{}, models.ErrUnknownField
	}
	if m.Taken[field][strings.ToLower(value)] {
		return models.Availability{Message: field.Label() + " is already taken"}, nil
	}
	return models.Availability{Available: true}, nil
}

// MockOrgService is a mock implementation of OrgService
type MockOrgService struct {
	DepartmentList  []*models.Department
	DesignationList []*models.Designation
	Candidates      []*models.ReportToCandidate
	Err             error
	Calls           int
}

var _ service.OrgService = (*MockOrgService)(nil)

// NewMockOrgService returns the same organisation as Repositories.SeedOrg
// plus two Engineering users, Bob (level 8) and Alice (level 5)
func NewMockOrgService() *MockOrgService {
	return &MockOrgService{
		DepartmentList: []*models.Department{{ID: 3, Name: "Engineering"}, {ID: 4, Name: "Finance"}},
		DesignationList: []*models.Designation{
			{ID: 10, Title: "Engineering Manager", DepartmentID: 3, Level: 8},
			{ID: 9, Title: "Senior Developer", DepartmentID: 3, Level: 5},
			{ID: 20, Title: "Accountant", DepartmentID: 4, Level: 3},
		},
		Candidates: []*models.ReportToCandidate{
			{ID: 1, Name: "Bob", DepartmentID: 3, Designation: "Engineering Manager", Level: 8},
			{ID: 2, Name: "Alice", DepartmentID: 3, Designation: "Senior Developer", Level: 5},
		},
	}
}

func (m *MockOrgService) Departments(ctx context.Context) ([]*models.Department, error) {
	m.Calls++
	return m.DepartmentList, m.Err
}

func (m *MockOrgService) Designations(ctx context.Context, departmentID int64) ([]*models.Designation, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := []*models.Designation{}
	for _, d := range m.DesignationList {
		if departmentID == 0 || d.DepartmentID == departmentID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MockOrgService) ReportToCandidates(ctx context.Context, departmentID, excludeID int64) ([]*models.ReportToCandidate, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := []*models.ReportToCandidate{}
	for _, c := range m.Candidates {
		if c.DepartmentID == departmentID && c.ID != excludeID {
			out = append(out, c)
		}
	}
	return out, nil
}

// MockUploadService is a mock implementation of UploadService
type MockUploadService struct {
	mu      sync.Mutex
	Stored  map[string]*models.Upload
	Err     error
	limits  upload.Limits
	counter int
}

var _ service.UploadService = (*MockUploadService)(nil)

func NewMockUploadService() *MockUploadService {
	return &MockUploadService{Stored: make(map[string]*models.Upload), limits: upload.DefaultLimits()}
}

func (m *MockUploadService) StoreProfileImage(ctx context.Context, a *models.Attachment) (*models.Upload, error) {
	if _, err := m.limits.Check(a); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.counter++
	rec := &models.Upload{
		ID:          a.Name,
		FileName:    a.Name,
		ContentType: a.ContentType,
		Size:        int64(len(a.Data)),
		URL:         fmt.Sprintf("/uploads/%d.png", m.counter),
	}
	m.Stored[rec.URL] = rec
	return rec, nil
}

func (m *MockUploadService) Resolve(ctx context.Context, url string) (*models.Upload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Stored[url]
	if !ok {
		return nil, models.ErrNotFound
	}
	return rec, nil
}

func (m *MockUploadService) Limits() upload.Limits {
	return m.limits
}
