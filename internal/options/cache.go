package options

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
)

// Kind is the entity an option list describes
type Kind string

const (
	KindDepartments  Kind = "departments"
	KindDesignations Kind = "designations"
	KindReportTo     Kind = "report_to"
)

// Key builds a composite cache key such as "designations:department=7"
func Key(kind Kind, departmentID int64) string {
	if departmentID == 0 {
		return string(kind)
	}
	return fmt.Sprintf("%s:department=%d", kind, departmentID)
}

type entry struct {
	options   []models.Option
	fetchedAt time.Time
}

// Cache is the option cache. It is owned by whoever builds the Provider;
// there is no package level state.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache. ttl <= 0 keeps entries until invalidated.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{entries: make(map[string]entry), ttl: ttl, now: time.Now}
}

// Get returns a copy of the list stored under key
func (c *Cache) Get(key string) ([]models.Option, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.fetchedAt) > c.ttl {
		return nil, false
	}
	return cloneOptions(e.options), true
}

// FetchedAt returns when key was stored
func (c *Cache) FetchedAt(key string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.fetchedAt, ok
}

// Put stores opts under key
func (c *Cache) Put(key string, opts []models.Option) {
	c.mu.Lock()
	c.entries[key] = entry{options: cloneOptions(opts), fetchedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate drops key
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidatePrefix drops key prefix and every "prefix:..." key
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.entries {
		if k == prefix || strings.HasPrefix(k, prefix+":") {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Len returns the number of cached lists
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cloneOptions(in []models.Option) []models.Option {
	if in == nil {
		return nil
	}
	out := make([]models.Option, len(in))
	copy(out, in)
	return out
}
