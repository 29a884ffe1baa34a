package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pricecomp/backend/internal/domain"
)

// MemoryCache is a thread-safe in-memory cache with TTL support
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates a new in-memory cache. Expired entries are purged every 10 minutes.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		store: gocache.New(gocache.NoExpiration, 10*time.Minute),
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, domain.ErrCacheMiss
	}

	data, ok := v.([]byte)
	if !ok {
		return nil, domain.ErrCacheMiss
	}

	// Hand out a copy so callers cannot modify the stored value
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Set stores a value in the cache with TTL. A non-positive TTL never expires.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	c.store.Set(key, stored, ttl)
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.store.Get(key)
	return ok, nil
}

// Size returns the current number of items in the cache (for debugging/monitoring)
func (c *MemoryCache) Size() int {
	return c.store.ItemCount()
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.store.Flush()
}
