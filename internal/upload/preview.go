package upload

import (
	"sync"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/google/uuid"
)

// PreviewRegistry allocates and releases local preview URLs
type PreviewRegistry interface {
	Create(a *models.Attachment) (string, error)
	Revoke(url string)
}

// MemoryPreviews is an in-process PreviewRegistry. It keeps the bytes of
// each live preview so they can be served back to a browser.
type MemoryPreviews struct {
	mu   sync.RWMutex
	live map[string]*models.Attachment
}

// NewMemoryPreviews creates an empty registry
func NewMemoryPreviews() *MemoryPreviews {
	return &MemoryPreviews{live: make(map[string]*models.Attachment)}
}

// Create allocates a "blob:" URL for a
func (m *MemoryPreviews) Create(a *models.Attachment) (string, error) {
	url := "blob:" + uuid.New().String()
	m.mu.Lock()
	m.live[url] = a
	m.mu.Unlock()
	return url, nil
}

// Revoke releases url. Unknown URLs are ignored.
func (m *MemoryPreviews) Revoke(url string) {
	m.mu.Lock()
	delete(m.live, url)
	m.mu.Unlock()
}

// Lookup returns the attachment behind a live url
func (m *MemoryPreviews) Lookup(url string) (*models.Attachment, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.live[url]
	return a, ok
}

// Live returns the number of unrevoked URLs
func (m *MemoryPreviews) Live() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.live)
}
