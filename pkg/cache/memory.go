package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryCache is an in-process cache bounded by entry count. When full, the
// entry closest to expiry is evicted (entries without TTL go last).
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	max     int
	now     func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// DefaultMemoryEntries bounds a MemoryCache created with max <= 0.
const DefaultMemoryEntries = 4096

// NewMemoryCache returns a cache holding at most max entries.
func NewMemoryCache(max int) *MemoryCache {
	if max <= 0 {
		max = DefaultMemoryEntries
	}
	return &MemoryCache{entries: make(map[string]memoryEntry), max: max, now: time.Now}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.expired(e) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return slices.Clone(e.data), true, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := memoryEntry{data: slices.Clone(data)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.max {
		c.evict()
	}
	c.entries[key] = e
	return nil
}

// Delete implements Cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Clear implements Clearer.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close implements Cache.
func (c *MemoryCache) Close() error { return nil }

func (c *MemoryCache) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}

// evict drops expired entries and, if still full, the entry expiring
// soonest. Callers hold mu.
func (c *MemoryCache) evict() {
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.max {
		return
	}

	var victim string
	var soonest time.Time
	for k, e := range c.entries {
		switch {
		case victim == "":
			victim, soonest = k, e.expiresAt
		case e.expiresAt.IsZero():
		case soonest.IsZero() || e.expiresAt.Before(soonest):
			victim, soonest = k, e.expiresAt
		}
	}
	delete(c.entries, victim)
}

var (
	_ Cache   = (*MemoryCache)(nil)
	_ Clearer = (*MemoryCache)(nil)
)
