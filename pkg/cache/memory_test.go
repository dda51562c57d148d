package cache

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/pulse/pkg/observability"
)

func TestMemoryCache_GetSet(t *testing.T) {
	c := NewMemoryCache(100)
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 0.5, stats.HitRate)
	assert.Equal(t, int64(1), stats.ItemSize)
}

func TestMemoryCache_PerKeyExpiry(t *testing.T) {
	c := NewMemoryCache(100)
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "long", []byte("2"), time.Hour))

	now = now.Add(2 * time.Minute)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)

	got, err := c.Get(ctx, "long")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)
}

func TestMemoryCache_TTLLongerThanAnHour(t *testing.T) {
	c := NewMemoryCache(100)
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "metric_daily_active_users_count", []byte("7"), 2*time.Hour))

	now = now.Add(90 * time.Minute)
	got, err := c.Get(ctx, "metric_daily_active_users_count")
	require.NoError(t, err)
	assert.Equal(t, []byte("7"), got)

	now = now.Add(31 * time.Minute)
	_, err = c.Get(ctx, "metric_daily_active_users_count")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache(100)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_InvalidKey(t *testing.T) {
	c := NewMemoryCache(100)
	ctx := context.Background()

	_, err := c.Get(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, c.Set(ctx, "", nil, 0), ErrInvalidKey)
	assert.ErrorIs(t, c.Delete(ctx, ""), ErrInvalidKey)
}

func TestMemoryCache_Metrics(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	c := NewMemoryCache(100, WithMetrics(metrics))
	ctx := context.Background()

	c.Get(ctx, "a")
	c.Set(ctx, "a", []byte("1"), time.Minute)
	c.Get(ctx, "a")
	c.Get(ctx, "a")

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheMissesTotal.WithLabelValues("memory")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("memory")))
}
