package wizard

import (
	"context"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/fieldcheck"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/form"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/options"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/service"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/upload"
)

// Backend is everything a hosted session talks to. The HTTP client and
// Local both implement it.
type Backend interface {
	form.UserAPI
	fieldcheck.Checker
	options.Fetcher
	upload.Uploader
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Local serves sessions from the in-process services
type Local struct {
	users   service.UserService
	org     service.OrgService
	uploads service.UploadService
}

var _ Backend = (*Local)(nil)

// NewLocal creates a Local backend
func NewLocal(svcs *service.Services) *Local {
	return &Local{users: svcs.User, org: svcs.Org, uploads: svcs.Upload}
}

func (l *Local) CreateUser(ctx context.Context, p *form.Payload) (*models.SubmitResult, error) {
	return l.users.Create(ctx, InputFromPayload(p))
}

func (l *Local) UpdateUser(ctx context.Context, id int64, p *form.Payload) (*models.SubmitResult, error) {
	return l.users.Update(ctx, id, InputFromPayload(p))
}

func (l *Local) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return l.users.Get(ctx, id)
}

func (l *Local) CheckAvailability(ctx context.Context, field models.Field, value string, excludeID int64) (models.Availability, error) {
	return l.users.CheckAvailability(ctx, field, value, excludeID)
}

func (l *Local) FetchDepartments(ctx context.Context) ([]models.Option, error) {
	deps, err := l.org.Departments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Option, 0, len(deps))
	for _, d := range deps {
		out = append(out, models.DepartmentOption(d))
	}
	return out, nil
}

func (l *Local) FetchDesignations(ctx context.Context, departmentID int64) ([]models.Option, error) {
	list, err := l.org.Designations(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Option, 0, len(list))
	for _, d := range list {
		out = append(out, models.DesignationOption(d))
	}
	return out, nil
}

func (l *Local) FetchReportTo(ctx context.Context, departmentID int64) ([]models.Option, error) {
	list, err := l.org.ReportToCandidates(ctx, departmentID, 0)
	if err != nil {
		return nil, err
	}
	out := make([]models.Option, 0, len(list))
	for _, c := range list {
		out = append(out, models.CandidateOption(c))
	}
	return out, nil
}

func (l *Local) UploadProfileImage(ctx context.Context, a *models.Attachment, progress func(int)) (string, error) {
	rec, err := l.uploads.StoreProfileImage(ctx, a)
	if err != nil {
		return "", err
	}
	return rec.URL, nil
}

// InputFromPayload converts a composed wizard payload into a service request
func InputFromPayload(p *form.Payload) *service.UserInput {
	in := &service.UserInput{Values: make(map[models.Field]string, len(p.Fields))}
	for _, pf := range p.Fields {
		in.Values[pf.Name] = pf.Value
	}
	if p.Image != nil {
		if p.Image.URL != "" {
			in.ImageURL = p.Image.URL
		} else {
			img := *p.Image
			in.Image = &img
		}
	}
	return in
}
