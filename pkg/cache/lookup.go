package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/platinummonkey/pulse/pkg/observability"
)

// Lookup returns cached values or recomputes them on a miss. Concurrent
// misses for the same key within one process share a single computation.
// Backend failures are logged and fall through to recomputation.
type Lookup struct {
	cache  Cache
	group  singleflight.Group
	logger *observability.Logger
}

// NewLookup creates a Lookup over c
func NewLookup(c Cache, logger *observability.Logger) *Lookup {
	return &Lookup{cache: c, logger: logger}
}

// Cache returns the underlying cache
func (l *Lookup) Cache() Cache {
	return l.cache
}

// Fetch returns the value cached under key, or calls compute, stores its
// result for ttl and returns it. Errors from compute are returned and
// nothing is cached.
func Fetch[T any](ctx context.Context, l *Lookup, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var cached T
	if l.get(ctx, key, &cached) {
		return cached, nil
	}

	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		l.set(ctx, key, value, ttl)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (l *Lookup) get(ctx context.Context, key string, target interface{}) bool {
	data, err := l.cache.Get(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		return false
	}
	if err != nil {
		l.logger.WithError(err).WithField("key", key).Warn("cache get failed, recomputing")
		return false
	}

	if err := json.Unmarshal(data, target); err != nil {
		l.logger.WithError(err).WithField("key", key).Warn("discarding corrupt cache entry")
		if err := l.cache.Delete(ctx, key); err != nil {
			l.logger.WithError(err).WithField("key", key).Warn("cache delete failed")
		}
		return false
	}

	return true
}

func (l *Lookup) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		l.logger.WithError(err).WithField("key", key).Warn("cache value not encodable")
		return
	}
	if err := l.cache.Set(ctx, key, data, ttl); err != nil {
		l.logger.WithError(err).WithField("key", key).Warn("cache set failed")
	}
}
