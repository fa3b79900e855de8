// Package upload manages the single profile image of the user wizard:
// validation against size and type limits, one live preview URL and at most
// one in-flight upload.
package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyFile       = errors.New("file is empty")
	ErrNoFile          = errors.New("no file selected")
	ErrCanceled        = errors.New("upload canceled")
)

// DefaultMaxSize is the largest accepted image
const DefaultMaxSize int64 = 5 << 20

// DefaultAllowedTypes lists the accepted image MIME types
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Uploader sends an image to the backend, reporting progress 0..100, and
// returns the public URL
type Uploader interface {
	UploadProfileImage(ctx context.Context, a *models.Attachment, progress func(int)) (string, error)
}

// Limits bounds what SelectFile accepts
type Limits struct {
	MaxSize      int64
	AllowedTypes []string
}

// DefaultLimits returns the 5MB image limits
func DefaultLimits() Limits {
	return Limits{MaxSize: DefaultMaxSize, AllowedTypes: DefaultAllowedTypes}
}

// State is a snapshot of the manager
type State struct {
	File       *models.Attachment `json:"file,omitempty"`
	PreviewURL string             `json:"preview_url,omitempty"`
	Progress   int                `json:"progress"`
	Uploading  bool               `json:"is_uploading"`
	Error      string             `json:"error,omitempty"`
	URL        string             `json:"url,omitempty"`
}

// Result is a finished upload
type Result struct {
	URL string `json:"url"`
}

// Manager owns one attachment slot
type Manager struct {
	limits   Limits
	previews PreviewRegistry
	uploader Uploader
	log      zerolog.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	seq    uint64
}

// NewManager creates a Manager. uploader may be nil when images are only
// sent along with the final submission.
func NewManager(limits Limits, previews PreviewRegistry, uploader Uploader, log zerolog.Logger) *Manager {
	if limits.MaxSize <= 0 {
		limits.MaxSize = DefaultMaxSize
	}
	if len(limits.AllowedTypes) == 0 {
		limits.AllowedTypes = DefaultAllowedTypes
	}
	if previews == nil {
		previews = NewMemoryPreviews()
	}
	return &Manager{
		limits:   limits,
		previews: previews,
		uploader: uploader,
		log:      log.With().Str("component", "upload").Logger(),
	}
}

// Limits returns the configured limits
func (m *Manager) Limits() Limits {
	return m.limits
}

// Check validates a against the limits and returns the sniffed content type
func (m *Manager) Check(a *models.Attachment) (string, error) {
	return m.limits.Check(a)
}

// SelectFile validates a and makes it the current file. An invalid file
// only sets State.Error; the previous selection stays.
func (m *Manager) SelectFile(a *models.Attachment) error {
	if a == nil {
		return ErrNoFile
	}
	contentType, err := m.Check(a)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.state.Error = m.limits.Message(err)
		m.log.Debug().Err(err).Str("file", a.Name).Msg("Rejected file")
		return err
	}

	file := *a
	file.ContentType = contentType
	if len(file.Data) > 0 {
		file.Size = int64(len(file.Data))
	}
	file.URL = ""

	m.cancelLocked()
	m.revokeLocked()

	url, err := m.previews.Create(&file)
	if err != nil {
		m.state = State{Error: "Unable to preview file"}
		return fmt.Errorf("create preview: %w", err)
	}
	m.state = State{File: &file, PreviewURL: url}
	return nil
}

// RemoveFile cancels any upload, revokes the preview and clears the slot
func (m *Manager) RemoveFile() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelLocked()
	m.revokeLocked()
	m.state = State{}
}

// Upload sends the current file. A second call cancels the first.
func (m *Manager) Upload(ctx context.Context) (Result, error) {
	m.mu.Lock()
	if m.state.File == nil {
		m.mu.Unlock()
		return Result{}, ErrNoFile
	}
	if m.uploader == nil {
		m.mu.Unlock()
		return Result{}, errors.New("no uploader configured")
	}
	m.cancelLocked()

	ctx, cancel := context.WithCancel(ctx)
	m.seq++
	id := m.seq
	m.cancel = cancel
	file := m.state.File
	m.state.Uploading = true
	m.state.Progress = 0
	m.state.Error = ""
	m.mu.Unlock()
	defer cancel()

	url, err := m.uploader.UploadProfileImage(ctx, file, func(p int) { m.progress(id, p) })

	m.mu.Lock()
	defer m.mu.Unlock()
	if id != m.seq {
		return Result{}, ErrCanceled
	}
	m.cancel = nil
	m.state.Uploading = false

	if err != nil {
		if ctx.Err() != nil {
			m.state.Progress = 0
			return Result{}, ErrCanceled
		}
		m.state.Error = models.ErrorMessage(err, "Upload failed")
		m.log.Error().Err(err).Str("file", file.Name).Msg("Upload failed")
		return Result{}, fmt.Errorf("upload %s: %w", file.Name, err)
	}

	m.state.Progress = 100
	m.state.URL = url
	m.state.File.URL = url
	return Result{URL: url}, nil
}

// State returns a copy of the current state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	if s.File != nil {
		f := *s.File
		s.File = &f
	}
	return s
}

// File returns the current attachment or nil
func (m *Manager) File() *models.Attachment {
	return m.State().File
}

// Close releases the preview and aborts any upload
func (m *Manager) Close() {
	m.RemoveFile()
}

func (m *Manager) progress(id uint64, p int) {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id != m.seq || !m.state.Uploading {
		return
	}
	if p > m.state.Progress {
		m.state.Progress = p
	}
}

func (m *Manager) cancelLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.seq++
	m.state.Uploading = false
}

func (m *Manager) revokeLocked() {
	if m.state.PreviewURL != "" {
		m.previews.Revoke(m.state.PreviewURL)
		m.state.PreviewURL = ""
	}
}

// Check validates a against l and returns the sniffed content type. The
// declared type is only trusted when no bytes are available.
func (l Limits) Check(a *models.Attachment) (string, error) {
	size := a.Size
	if len(a.Data) > 0 {
		size = int64(len(a.Data))
	}
	if size == 0 {
		return "", ErrEmptyFile
	}
	if size > l.MaxSize {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, size, l.MaxSize)
	}

	contentType := a.ContentType
	if len(a.Data) > 0 {
		contentType = mimetype.Detect(a.Data).String()
	}
	if !l.allowed(contentType) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return baseType(contentType), nil
}

// Message turns a Check error into the text shown to the user
func (l Limits) Message(err error) string {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return fmt.Sprintf("File size must be less than %s", humanSize(l.MaxSize))
	case errors.Is(err, ErrUnsupportedType):
		return "Only " + typeList(l.AllowedTypes) + " images are allowed"
	case errors.Is(err, ErrEmptyFile):
		return "File is empty"
	default:
		return "Invalid file"
	}
}

func (l Limits) allowed(contentType string) bool {
	ct := baseType(contentType)
	for _, t := range l.AllowedTypes {
		if strings.EqualFold(t, ct) {
			return true
		}
	}
	return false
}

func baseType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%dKB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

func typeList(types []string) string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		name := strings.ToUpper(strings.TrimPrefix(t, "image/"))
		if name == "WEBP" {
			name = "WebP"
		}
		names = append(names, name)
	}
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
