package service

import (
	"context"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/config"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/repository"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/upload"
	"github.com/rs/zerolog"
)

// UserInput is a decoded create or update request. Values holds only the
// fields that were sent; on update the rest keep their stored value.
type UserInput struct {
	Values   map[models.Field]string
	Image    *models.Attachment
	ImageURL string
}

// UserService defines the interface for user onboarding operations
type UserService interface {
	Create(ctx context.Context, in *UserInput) (*models.SubmitResult, error)
	Update(ctx context.Context, id int64, in *UserInput) (*models.SubmitResult, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	CheckAvailability(ctx context.Context, field models.Field, value string, excludeID int64) (models.Availability, error)
}

// OrgService defines the interface for the organisational option lists
type OrgService interface {
	Departments(ctx context.Context) ([]*models.Department, error)
	Designations(ctx context.Context, departmentID int64) ([]*models.Designation, error)
	ReportToCandidates(ctx context.Context, departmentID, excludeID int64) ([]*models.ReportToCandidate, error)
}

// UploadService defines the interface for stored profile images
type UploadService interface {
	StoreProfileImage(ctx context.Context, a *models.Attachment) (*models.Upload, error)
	Resolve(ctx context.Context, url string) (*models.Upload, error)
	Limits() upload.Limits
}

// Services holds all service interfaces
type Services struct {
	User   UserService
	Org    OrgService
	Upload UploadService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *Services {
	uploadSvc := newUploadService(repos.Upload, cfg.Upload, log)
	orgSvc := newOrgService(repos, log)
	userSvc := newUserService(repos, uploadSvc, cfg.Security, log)

	return &Services{
		User:   userSvc,
		Org:    orgSvc,
		Upload: uploadSvc,
	}
}
