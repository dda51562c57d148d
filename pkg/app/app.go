package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/platinummonkey/pulse/pkg/activity"
	"github.com/platinummonkey/pulse/pkg/api"
	"github.com/platinummonkey/pulse/pkg/cache"
	"github.com/platinummonkey/pulse/pkg/config"
	"github.com/platinummonkey/pulse/pkg/httputil"
	"github.com/platinummonkey/pulse/pkg/instrument"
	"github.com/platinummonkey/pulse/pkg/observability"
	"github.com/platinummonkey/pulse/pkg/ratelimit"
	"github.com/platinummonkey/pulse/pkg/reporting"
	"github.com/platinummonkey/pulse/pkg/statsd"
	"github.com/platinummonkey/pulse/pkg/storage"
	"github.com/platinummonkey/pulse/pkg/tracking"
)

// maxFormBytes bounds pixel request bodies
const maxFormBytes = 64 << 10

// App holds the components shared by the pulse binaries
type App struct {
	Config   *config.Config
	Logger   *observability.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	DB    *sql.DB
	Redis *redis.Client
	Cache cache.Cache
	Store *activity.SQLStore

	Statsd   *statsd.Client
	Tracking *tracking.Metrics
	Trackers *tracking.Registry

	now         func() time.Time
	stopCleanup context.CancelFunc
}

// New connects to the configured database, Redis and StatsD and migrates
// the activity schema. Close releases everything New opened.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		now:      time.Now,
	}
	a.Metrics = observability.NewMetrics(a.Registry)

	if err := a.open(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) open(ctx context.Context) error {
	cfg := a.Config

	db, err := storage.OpenDB(cfg.Storage)
	if err != nil {
		return err
	}
	a.DB = db

	if err := activity.Migrate(ctx, db, cfg.Storage.Driver); err != nil {
		return err
	}

	a.Store, err = activity.NewSQLStore(db, activity.Options{
		Driver:       cfg.Storage.Driver,
		UsersTable:   cfg.Tracking.UsersTable,
		JoinedColumn: cfg.Tracking.JoinedColumn,
	})
	if err != nil {
		return err
	}

	if cfg.Storage.RedisURL != "" {
		a.Redis, err = storage.NewRedisClient(cfg.Storage)
		if err != nil {
			return err
		}
		a.Cache = cache.NewRedisCache(a.Redis, cache.WithMetrics(a.Metrics))
		a.Logger.Info("Using Redis metric cache")
	} else {
		a.Cache = cache.NewMemoryCache(cfg.Tracking.CacheSize, cache.WithMetrics(a.Metrics))
		a.Logger.Info("Using in-memory metric cache")
	}

	a.Statsd, err = statsd.New(cfg.Statsd, statsd.WithMetrics(a.Metrics))
	if err != nil {
		return err
	}

	a.Tracking = tracking.NewMetrics(a.Store, cache.NewLookup(a.Cache, a.Logger),
		tracking.WithDefaultTTL(cfg.Tracking.CacheTTL),
		tracking.WithObservability(a.Metrics),
	)

	a.Trackers = tracking.DefaultRegistry(a.Tracking)
	for _, st := range cfg.Tracking.Static {
		a.Trackers.RegisterTracker(tracking.NewStaticValuesTracker(st.ID, st.Gauges, st.Counters))
	}

	return nil
}

// Close releases the StatsD socket, Redis client and database
func (a *App) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.stopCleanup != nil {
		a.stopCleanup()
	}
	if a.Statsd != nil {
		keep(a.Statsd.Close())
	}
	if a.Redis != nil {
		keep(a.Redis.Close())
	}
	if a.DB != nil {
		keep(a.DB.Close())
	}
	return firstErr
}

// Handler returns the instrumented HTTP handler serving the pixel endpoints
func (a *App) Handler() http.Handler {
	cfg := a.Config
	stash := instrument.NewRenderStash(a.Cache, instrument.DefaultStashTTL)

	inst := instrument.New(a.Statsd, cfg.Instrument, a.Logger,
		instrument.WithLastSeenStore(a.Store),
		instrument.WithRenderStash(stash),
		instrument.WithMetrics(a.Metrics),
	)

	router := mux.NewRouter()
	if cfg.Observability.MetricsEnabled {
		router.Use(observability.HTTPMetricsMiddleware(a.Metrics))
	}
	router.Use(inst.Middleware)
	// mux skips Use middleware when no route matches
	router.NotFoundHandler = inst.Middleware(http.NotFoundHandler())
	router.MethodNotAllowedHandler = inst.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))

	server := api.NewServer(a.Statsd, a.Logger,
		api.WithActivityRecorder(a.Store),
		api.WithRenderStash(stash),
		api.WithMetrics(a.Metrics),
	)
	server.RegisterRoutes(router)

	middlewares := []func(http.Handler) http.Handler{
		httputil.RecoveryMiddleware(a.Logger),
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(a.Logger),
		httputil.CORSMiddleware(cfg.Server.CORSOrigins),
		httputil.MaxBytesMiddleware(maxFormBytes),
	}
	if cfg.Server.UserHeader != "" {
		middlewares = append(middlewares, instrument.UserMiddleware(instrument.HeaderUserResolver(cfg.Server.UserHeader)))
	}
	if limiter := a.rateLimiter(); limiter != nil {
		middlewares = append(middlewares, ratelimit.Middleware(limiter, a.rateLimitConfig(), a.Logger))
	}

	return httputil.Chain(middlewares...)(router)
}

func (a *App) rateLimitConfig() ratelimit.Config {
	return ratelimit.Config{
		RequestsPerWindow: a.Config.Server.RateLimit,
		WindowDuration:    time.Minute,
		BurstSize:         a.Config.Server.RateLimitBurst,
	}
}

// rateLimiter returns nil when limiting is disabled. Limits are shared
// through Redis when it is configured.
func (a *App) rateLimiter() ratelimit.Limiter {
	if a.Config.Server.RateLimit <= 0 {
		return nil
	}
	if a.Redis != nil {
		return ratelimit.NewRedisLimiter(a.Redis, a.rateLimitConfig(), "pulse:ratelimit")
	}
	limiter := ratelimit.NewMemoryLimiter(a.rateLimitConfig())
	if a.stopCleanup != nil {
		a.stopCleanup()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.stopCleanup = cancel
	limiter.StartCleanup(ctx)
	return limiter
}

// HealthHandler serves /healthz, /readyz and the Prometheus /metrics
func (a *App) HealthHandler() http.Handler {
	mux := http.NewServeMux()
	checker := observability.NewHealthChecker(a.DB, a.Redis)
	checker.AddCheck("schema", true, func(ctx context.Context) error {
		return activity.CheckSchema(ctx, a.DB)
	})
	observability.RegisterHealthRoutes(mux, checker)
	if a.Config.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(mux, a.Registry)
	}
	return mux
}

// Lifecycle returns the recorder for registrations and logins
func (a *App) Lifecycle() *instrument.Lifecycle {
	return instrument.NewLifecycle(a.Statsd, a.Store, a.Logger)
}

// Reporter resolves the configured trackers into a Reporter that sends
// through one pipeline per run
func (a *App) Reporter() (*reporting.Reporter, error) {
	trackers, err := a.Trackers.Resolve(a.Config.Tracking.Trackers)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve trackers: %w", err)
	}
	return reporting.NewReporter(a.Statsd.Pipeline(), trackers, a.Logger,
		reporting.WithMetrics(a.Metrics),
	), nil
}

// Report runs one tracker report
func (a *App) Report(ctx context.Context) (reporting.Summary, error) {
	reporter, err := a.Reporter()
	if err != nil {
		return reporting.Summary{}, err
	}
	summary := reporter.Run(ctx)
	a.Logger.WithFields(map[string]interface{}{
		"reported": summary.Reported,
		"failed":   summary.Failed,
	}).Info("Tracker report completed")
	return summary, nil
}

// Cleanup deletes activity records older than days
func (a *App) Cleanup(ctx context.Context, days int) (int64, error) {
	deleted, err := activity.Cleanup(ctx, a.Store, days, a.now())
	if err != nil {
		return 0, err
	}
	a.Logger.WithFields(map[string]interface{}{
		"days":    days,
		"deleted": deleted,
	}).Info("Activity cleanup completed")
	return deleted, nil
}
