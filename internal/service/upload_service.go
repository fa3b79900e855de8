package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/config"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/repository"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/upload"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// uploadService is the concrete implementation of UploadService
type uploadService struct {
	repo      repository.UploadRepository
	limits    upload.Limits
	dir       string
	publicURL string
	log       zerolog.Logger
}

func newUploadService(repo repository.UploadRepository, cfg config.UploadConfig, log zerolog.Logger) *uploadService {
	return &uploadService{
		repo:      repo,
		limits:    upload.Limits{MaxSize: cfg.MaxSize, AllowedTypes: cfg.AllowedTypes},
		dir:       cfg.Dir,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		log:       log.With().Str("service", "upload").Logger(),
	}
}

// Limits returns the accepted size and types
func (s *uploadService) Limits() upload.Limits {
	return s.limits
}

// StoreProfileImage validates the image by its content, writes it to the
// upload directory and records it. Check errors are returned unwrapped so
// callers can match them with errors.Is.
func (s *uploadService) StoreProfileImage(ctx context.Context, a *models.Attachment) (*models.Upload, error) {
	if a == nil {
		return nil, upload.ErrNoFile
	}
	if len(a.Data) == 0 {
		return nil, upload.ErrEmptyFile
	}
	contentType, err := s.limits.Check(a)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	id := uuid.New().String()
	name := id + mimetype.Detect(a.Data).Extension()
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}

	rec := &models.Upload{
		ID:          id,
		FileName:    filepath.Base(a.Name),
		ContentType: contentType,
		Size:        int64(len(a.Data)),
		Path:        path,
		URL:         s.publicURL + "/" + name,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	s.log.Info().
		Str("upload_id", rec.ID).
		Str("content_type", rec.ContentType).
		Int64("size", rec.Size).
		Msg("Profile image stored")
	return rec, nil
}

// Resolve finds a previously stored upload by its public URL
func (s *uploadService) Resolve(ctx context.Context, url string) (*models.Upload, error) {
	rec, err := s.repo.GetByURL(ctx, url)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, models.ErrNotFound
	}
	return rec, nil
}
