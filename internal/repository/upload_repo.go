package repository

import (
	"context"
	"database/sql"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/database"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
)

// uploadRepo is the concrete implementation of UploadRepository
type uploadRepo struct {
	db *database.DB
}

// NewUploadRepo creates a new upload repository
func NewUploadRepo(db *database.DB) UploadRepository {
	return &uploadRepo{db: db}
}

// Create records a stored file
func (r *uploadRepo) Create(ctx context.Context, upload *models.Upload) error {
	query := `
		INSERT INTO uploads (id, file_name, content_type, size, path, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		upload.ID, upload.FileName, upload.ContentType, upload.Size,
		upload.Path, upload.URL, upload.CreatedAt,
	)
	return err
}

// GetByURL retrieves an upload by its public URL, nil when absent
func (r *uploadRepo) GetByURL(ctx context.Context, url string) (*models.Upload, error) {
	query := `SELECT id, file_name, content_type, size, path, url, created_at FROM uploads WHERE url = $1`

	var u models.Upload
	err := r.db.QueryRowContext(ctx, query, url).Scan(
		&u.ID, &u.FileName, &u.ContentType, &u.Size, &u.Path, &u.URL, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
