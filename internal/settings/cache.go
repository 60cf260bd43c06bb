package settings

import (
	"sync"
	"time"
)

// Cache is the resolver's TTL cache seam. Implementations must replace
// entries wholesale so a concurrent reader never observes a half-written
// value.
type Cache interface {
	Get(tenantID string) (*Resolved, bool)
	Set(tenantID string, value *Resolved)
	Delete(tenantID string)
	Clear()
}

type cacheEntry struct {
	value   *Resolved
	expires time.Time
}

// TTLCache is a mutex-guarded map with per-entry expiry. The clock is
// injectable so tests can verify expiry without sleeping real time.
type TTLCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewTTLCache creates a cache with the given entry TTL.
func NewTTLCache(ttl time.Duration) *TTLCache {
	return NewTTLCacheWithClock(ttl, time.Now)
}

// NewTTLCacheWithClock creates a cache with an explicit clock, for tests.
func NewTTLCacheWithClock(ttl time.Duration, now func() time.Time) *TTLCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &TTLCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the cached value if present and unexpired. An expired entry is
// never served.
func (c *TTLCache) Get(tenantID string) (*Resolved, bool) {
	c.mu.RLock()
	entry, ok := c.entries[tenantID]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value with a fresh TTL, replacing any existing entry.
func (c *TTLCache) Set(tenantID string, value *Resolved) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[tenantID] = cacheEntry{value: value, expires: c.now().Add(c.ttl)}
}

// Delete removes one tenant's entry.
func (c *TTLCache) Delete(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, tenantID)
}

// Clear removes all entries.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
