package cache

import (
	"context"
	"errors"
	"time"

	"github.com/platinummonkey/pulse/pkg/observability"
)

var (
	// ErrCacheMiss is returned when a key is absent or expired
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidKey is returned for empty keys
	ErrInvalidKey = errors.New("invalid cache key")
)

// Cache is a key-value store with per-key expiration
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Stats holds cache statistics
type Stats struct {
	Hits     int64
	Misses   int64
	HitRate  float64
	ItemSize int64
}

// Option configures a cache backend
type Option func(*options)

type options struct {
	metrics *observability.Metrics
	prefix  string
}

// WithMetrics records hits, misses and backend errors
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithKeyPrefix namespaces every key in shared backends
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

func applyOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) recordHit(backend string) {
	if o.metrics != nil {
		o.metrics.CacheHitsTotal.WithLabelValues(backend).Inc()
	}
}

func (o options) recordMiss(backend string) {
	if o.metrics != nil {
		o.metrics.CacheMissesTotal.WithLabelValues(backend).Inc()
	}
}

func (o options) recordError(backend, operation string) {
	if o.metrics != nil {
		o.metrics.CacheErrorsTotal.WithLabelValues(backend, operation).Inc()
	}
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
