package requestcache

import (
	"context"
	"sync"
	"time"
)

// Cache is a small read-through TTL cache for API reads that tolerate
// staleness (catalog listings, flash sales). Writes always go straight to
// the platform; only reads are cached.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

type entry struct {
	value     any
	expiresAt time.Time
}

// New builds a cache whose entries expire after ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]entry{},
	}
}

// Fetch returns the cached value for key, or runs fn and caches its result.
// Errors are never cached.
func (c *Cache) Fetch(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	if cached, ok := c.entries[key]; ok && c.now().Before(cached.expiresAt) {
		c.mu.Unlock()
		return cached.value, nil
	}
	c.mu.Unlock()

	value, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return value, nil
}

// Invalidate drops one key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = map[string]entry{}
	c.mu.Unlock()
}
