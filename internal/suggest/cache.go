package suggest

import (
	"sync"
	"time"

	"github.com/Natascha-cs/kalendr/internal/model"
)

type cacheEntry struct {
	suggestions []model.Suggestion
	fetchedAt   time.Time
}

// Cache holds suggestion lists for a fixed TTL. A zero TTL disables it.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *Cache) Get(key string) ([]model.Suggestion, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.ttl <= 0 || c.now().Sub(e.fetchedAt) > c.ttl {
		return nil, false
	}

	result := make([]model.Suggestion, len(e.suggestions))
	copy(result, e.suggestions)
	return result, true
}

func (c *Cache) Set(key string, suggestions []model.Suggestion) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]model.Suggestion, len(suggestions))
	copy(stored, suggestions)
	c.entries[key] = cacheEntry{suggestions: stored, fetchedAt: c.now()}
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
}
