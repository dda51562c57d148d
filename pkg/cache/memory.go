package cache

import (
	"context"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const backendMemory = "memory"

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process LRU cache. Entries carry their own
// expiration; the LRU itself only evicts by size.
type MemoryCache struct {
	cache  *lru.LRU[string, memoryEntry]
	opts   options
	now    func() time.Time
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemoryCache creates an LRU cache holding up to size entries
func NewMemoryCache(size int, opts ...Option) *MemoryCache {
	if size < 10 {
		size = 10
	}

	return &MemoryCache{
		cache: lru.NewLRU[string, memoryEntry](size, nil, 0),
		opts:  applyOptions(opts),
		now:   time.Now,
	}
}

// Get returns the value for key or ErrCacheMiss
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	entry, ok := c.cache.Get(key)
	if ok && !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		c.cache.Remove(key)
		ok = false
	}
	if !ok {
		c.misses.Add(1)
		c.opts.recordMiss(backendMemory)
		return nil, ErrCacheMiss
	}

	c.hits.Add(1)
	c.opts.recordHit(backendMemory)
	return entry.value, nil
}

// Set stores value for ttl. A non-positive ttl keeps the entry until it
// is evicted.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.cache.Add(key, entry)
	return nil
}

// Delete removes key
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	c.cache.Remove(key)
	return nil
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	return Stats{
		Hits:     hits,
		Misses:   misses,
		HitRate:  hitRate(hits, misses),
		ItemSize: int64(c.cache.Len()),
	}
}
