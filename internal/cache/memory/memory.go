package memory

import (
	"context"
	"sync"
	"time"

	"mbti/internal/domain"
)

type entry struct {
	pred    *domain.Prediction
	expires time.Time
}

// Cache is an in-process prediction cache. When full, an arbitrary entry
// is evicted to make room.
type Cache struct {
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]entry
	now        func() time.Time
}

// NewCache creates a cache; ttl <= 0 keeps entries forever and
// maxEntries <= 0 leaves the size unbounded.
func NewCache(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{ttl: ttl, maxEntries: maxEntries, entries: make(map[string]entry), now: time.Now}
}

func (c *Cache) Name() string { return "memory" }

func (c *Cache) Get(_ context.Context, key string) (*domain.Prediction, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	return e.pred, nil
}

func (c *Cache) Set(_ context.Context, key string, p *domain.Prediction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	var expires time.Time
	if c.ttl > 0 {
		expires = c.now().Add(c.ttl)
	}
	c.entries[key] = entry{pred: p, expires: expires}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
