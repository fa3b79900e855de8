package fieldcheck

import (
	"strings"
	"sync"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/validation"
)

// ResultCache remembers uniqueness answers keyed by "field:value". Writes are
// idempotent, so concurrent writers never disagree.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]validation.Result
}

// NewResultCache creates an empty cache
func NewResultCache() *ResultCache {
	return &ResultCache{entries: make(map[string]validation.Result)}
}

// CacheKey builds the key for field and value. Emails compare
// case-insensitively, so they are lowered.
func CacheKey(f models.Field, value string) string {
	if f == models.FieldEmail {
		value = strings.ToLower(value)
	}
	return string(f) + ":" + value
}

// Get returns the cached result for key
func (c *ResultCache) Get(key string) (validation.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[key]
	return res, ok
}

// Put stores res under key
func (c *ResultCache) Put(key string, res validation.Result) {
	c.mu.Lock()
	c.entries[key] = res
	c.mu.Unlock()
}

// Invalidate drops key
func (c *ResultCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of cached answers
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
