package tracking

import (
	"context"
	"time"

	"github.com/platinummonkey/pulse/pkg/activity"
	"github.com/platinummonkey/pulse/pkg/cache"
	"github.com/platinummonkey/pulse/pkg/observability"
)

// Metric names, also used to build cache keys
const (
	DailyActiveUsers    = "daily_active_users_count"
	MonthlyActiveUsers  = "monthly_active_users_count"
	NewUsers            = "new_users_count"
	LastMonthUsers      = "last_month_users_count"
	ReturningUsers      = "returning_users_count"
	ChurnedUsers        = "churned_users_count"
	RetentionRate       = "retention_rate"
	ChurnRate           = "churn_rate"
	UserDurationAverage = "user_duration_average"
	EngagementRatio     = "engagement_ratio"
)

// DefaultTTL is how long a computed metric stays cached
const DefaultTTL = 5 * time.Minute

// CacheKey returns the cache key for a metric name
func CacheKey(name string) string {
	return "metric_" + name
}

// Metrics computes user activity aggregates. Every result is cached under
// CacheKey(name) and may be stale for up to its TTL.
type Metrics struct {
	store      activity.StatsReader
	lookup     *cache.Lookup
	now        func() time.Time
	defaultTTL time.Duration
	ttls       map[string]time.Duration
	obs        *observability.Metrics
}

// Option configures Metrics
type Option func(*Metrics)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(m *Metrics) {
		m.now = now
	}
}

// WithTTL sets the cache lifetime of one metric
func WithTTL(name string, ttl time.Duration) Option {
	return func(m *Metrics) {
		m.ttls[name] = ttl
	}
}

// WithDefaultTTL sets the cache lifetime of metrics without their own TTL
func WithDefaultTTL(ttl time.Duration) Option {
	return func(m *Metrics) {
		if ttl > 0 {
			m.defaultTTL = ttl
		}
	}
}

// WithObservability counts query outcomes
func WithObservability(obs *observability.Metrics) Option {
	return func(m *Metrics) {
		m.obs = obs
	}
}

// NewMetrics creates an aggregation engine over store, caching through lookup
func NewMetrics(store activity.StatsReader, lookup *cache.Lookup, opts ...Option) *Metrics {
	m := &Metrics{
		store:      store,
		lookup:     lookup,
		now:        time.Now,
		defaultTTL: DefaultTTL,
		ttls:       make(map[string]time.Duration),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Metrics) ttl(name string) time.Duration {
	if ttl, ok := m.ttls[name]; ok {
		return ttl
	}
	return m.defaultTTL
}

func (m *Metrics) observe(err error) {
	if m.obs == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.obs.TrackerMetricsTotal.WithLabelValues("query", status).Inc()
}

func (m *Metrics) count(ctx context.Context, name string, query func(ctx context.Context, now time.Time) (int64, error)) (int64, error) {
	return cache.Fetch(ctx, m.lookup, CacheKey(name), m.ttl(name), func(ctx context.Context) (int64, error) {
		n, err := query(ctx, m.now())
		m.observe(err)
		return n, err
	})
}

func (m *Metrics) ratio(ctx context.Context, name string, compute func(ctx context.Context) (float64, error)) (float64, error) {
	return cache.Fetch(ctx, m.lookup, CacheKey(name), m.ttl(name), compute)
}

// DailyActiveUsersCount counts users seen in the past day
func (m *Metrics) DailyActiveUsersCount(ctx context.Context) (int64, error) {
	return m.count(ctx, DailyActiveUsers, func(ctx context.Context, now time.Time) (int64, error) {
		return m.store.CountSeenSince(ctx, now.Add(-activity.Day))
	})
}

// MonthlyActiveUsersCount counts users seen in the past 30 days
func (m *Metrics) MonthlyActiveUsersCount(ctx context.Context) (int64, error) {
	return m.count(ctx, MonthlyActiveUsers, func(ctx context.Context, now time.Time) (int64, error) {
		return m.store.CountSeenSince(ctx, now.Add(-activity.Month))
	})
}

// NewUsersCount counts users registered in the past 30 days
func (m *Metrics) NewUsersCount(ctx context.Context) (int64, error) {
	return m.count(ctx, NewUsers, func(ctx context.Context, now time.Time) (int64, error) {
		return m.store.CountJoinedSince(ctx, now.Add(-activity.Month))
	})
}

// LastMonthUsersCount counts users who showed up 30 to 60 days ago
func (m *Metrics) LastMonthUsersCount(ctx context.Context) (int64, error) {
	return m.count(ctx, LastMonthUsers, func(ctx context.Context, now time.Time) (int64, error) {
		return m.store.CountLastMonth(ctx, now.Add(-2*activity.Month), now.Add(-activity.Month))
	})
}

// ReturningUsersCount counts last-month users also seen in the past 30 days
func (m *Metrics) ReturningUsersCount(ctx context.Context) (int64, error) {
	return m.count(ctx, ReturningUsers, func(ctx context.Context, now time.Time) (int64, error) {
		return m.store.CountReturning(ctx, now.Add(-2*activity.Month), now.Add(-activity.Month))
	})
}

// ChurnedUsersCount counts last-month users not seen in the past 30 days
func (m *Metrics) ChurnedUsersCount(ctx context.Context) (int64, error) {
	return m.count(ctx, ChurnedUsers, func(ctx context.Context, now time.Time) (int64, error) {
		return m.store.CountChurned(ctx, now.Add(-2*activity.Month), now.Add(-activity.Month))
	})
}

// RetentionRate is the share of last-month users who returned, or 0 when
// there were none
func (m *Metrics) RetentionRate(ctx context.Context) (float64, error) {
	return m.ratio(ctx, RetentionRate, func(ctx context.Context) (float64, error) {
		returning, err := m.ReturningUsersCount(ctx)
		if err != nil {
			return 0, err
		}
		lastMonth, err := m.LastMonthUsersCount(ctx)
		if err != nil {
			return 0, err
		}
		if lastMonth == 0 {
			return 0.0, nil
		}
		return float64(returning) / float64(lastMonth), nil
	})
}

// ChurnRate is 1 - RetentionRate
func (m *Metrics) ChurnRate(ctx context.Context) (float64, error) {
	return m.ratio(ctx, ChurnRate, func(ctx context.Context) (float64, error) {
		retention, err := m.RetentionRate(ctx)
		if err != nil {
			return 0, err
		}
		return 1 - retention, nil
	})
}

// UserDurationAverage is the average number of 30-day periods a user stays
// active, 1 / ChurnRate, or 0 when nobody churns
func (m *Metrics) UserDurationAverage(ctx context.Context) (float64, error) {
	return m.ratio(ctx, UserDurationAverage, func(ctx context.Context) (float64, error) {
		churn, err := m.ChurnRate(ctx)
		if err != nil {
			return 0, err
		}
		if churn == 0 {
			return 0.0, nil
		}
		return 1 / churn, nil
	})
}

// EngagementRatio is daily over monthly active users, or 0 when there are
// no monthly users
func (m *Metrics) EngagementRatio(ctx context.Context) (float64, error) {
	return m.ratio(ctx, EngagementRatio, func(ctx context.Context) (float64, error) {
		daily, err := m.DailyActiveUsersCount(ctx)
		if err != nil {
			return 0, err
		}
		monthly, err := m.MonthlyActiveUsersCount(ctx)
		if err != nil {
			return 0, err
		}
		if monthly == 0 {
			return 0.0, nil
		}
		return float64(daily) / float64(monthly), nil
	})
}
