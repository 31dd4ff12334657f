package store

import (
	"time"

	"github.com/hession/boxmate/internal/logger"
)

// ResponseCache adapts a Store to the homebox client cache. Storage errors
// are logged and treated as cache misses so a broken cache never breaks a
// lookup.
type ResponseCache struct {
	store Store
	ttl   time.Duration
}

// NewResponseCache creates a response cache with the given TTL.
// A zero or negative TTL returns nil, which disables caching.
func NewResponseCache(s Store, ttl time.Duration) *ResponseCache {
	if s == nil || ttl <= 0 {
		return nil
	}
	return &ResponseCache{store: s, ttl: ttl}
}

// Get returns a cached payload when present and fresh
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	payload, ok, err := c.store.CacheGet(key)
	if err != nil {
		logger.Warn("cache read failed for %s: %v", key, err)
		return nil, false
	}
	return payload, ok
}

// Set stores a payload for the configured TTL
func (c *ResponseCache) Set(key string, payload []byte) {
	if err := c.store.CacheSet(key, payload, time.Now().Add(c.ttl)); err != nil {
		logger.Warn("cache write failed for %s: %v", key, err)
	}
}

// Invalidate drops all cached responses
func (c *ResponseCache) Invalidate() {
	if err := c.store.ClearCache(); err != nil {
		logger.Warn("cache invalidation failed: %v", err)
	}
}
