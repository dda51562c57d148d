package instrument

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/pulse/pkg/activity"
	"github.com/platinummonkey/pulse/pkg/contextkeys"
	"github.com/platinummonkey/pulse/pkg/observability"
	"github.com/platinummonkey/pulse/pkg/statsd"
)

const (
	globalTiming     = "view.all"
	globalRequests   = "view.requests"
	globalExceptions = "view.exceptions"
	unmatchedView    = "unmatched"
	rootView         = "root"
)

// BatchFactory creates one batch per request. *statsd.Client implements it.
type BatchFactory interface {
	NewBatch() statsd.Batcher
}

// Config selects what the middleware records
type Config struct {
	// TimeResponses emits per-view and global timings and request counters
	TimeResponses bool `yaml:"time_responses"`
	// TimingSampleRate applies to the timings, in (0, 1]
	TimingSampleRate float64 `yaml:"timing_sample_rate"`
	// TrackUserActivity updates LastSeenData for identified users
	TrackUserActivity bool `yaml:"track_user_activity"`
	// ReportRenderTiming stashes request start data for the browser report
	ReportRenderTiming bool `yaml:"report_render_timing"`
	// IncludeMethod suffixes view names with the lower-cased HTTP method
	IncludeMethod bool `yaml:"include_method"`
}

// DefaultConfig returns the default middleware configuration
func DefaultConfig() Config {
	return Config{
		TimeResponses:     true,
		TimingSampleRate:  1,
		TrackUserActivity: true,
	}
}

// Instrumenter produces the request instrumentation middleware
type Instrumenter struct {
	client  BatchFactory
	config  Config
	logger  *observability.Logger
	store   activity.LastSeenStore
	stash   *RenderStash
	users   UserResolver
	metrics *observability.Metrics
	now     func() time.Time
}

// Option configures an Instrumenter
type Option func(*Instrumenter)

// WithLastSeenStore enables last-seen tracking against store
func WithLastSeenStore(store activity.LastSeenStore) Option {
	return func(i *Instrumenter) {
		i.store = store
	}
}

// WithRenderStash stores render-timing data for ReportRenderTiming
func WithRenderStash(stash *RenderStash) Option {
	return func(i *Instrumenter) {
		i.stash = stash
	}
}

// WithUserResolver identifies the requesting user when the context does not
// already carry one
func WithUserResolver(resolver UserResolver) Option {
	return func(i *Instrumenter) {
		i.users = resolver
	}
}

// WithMetrics records last-seen update outcomes
func WithMetrics(m *observability.Metrics) Option {
	return func(i *Instrumenter) {
		i.metrics = m
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(i *Instrumenter) {
		i.now = now
	}
}

// New creates an Instrumenter
func New(client BatchFactory, config Config, logger *observability.Logger, opts ...Option) *Instrumenter {
	if config.TimingSampleRate <= 0 || config.TimingSampleRate > 1 {
		config.TimingSampleRate = 1
	}
	i := &Instrumenter{
		client: client,
		config: config,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Middleware instruments every request passing through it. Register it with
// Router.Use so the matched route is known when it runs.
func (i *Instrumenter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := &Scope{
			batch:    i.client.NewBatch(),
			viewName: i.viewName(r),
			start:    i.now(),
			now:      i.now,
		}

		ctx := r.Context()
		if _, ok := ctx.Value(contextkeys.LoggerKey).(*observability.Logger); !ok {
			ctx = observability.WithLogger(ctx, i.logger)
		}
		userID := contextkeys.GetUserID(ctx)
		if userID == "" && i.users != nil {
			if id, ok := i.users(r); ok {
				userID = id
				ctx = contextkeys.WithUserID(ctx, id)
			}
		}
		scope.userID = userID
		ctx = contextkeys.WithScope(ctx, scope)
		r = r.WithContext(ctx)

		logger := observability.FromContext(ctx).WithField("view", scope.viewName)

		if i.config.ReportRenderTiming && i.stash != nil {
			i.stashRequest(ctx, logger, scope, r)
		}

		defer func() {
			if rec := recover(); rec != nil {
				if err := scope.countException(); err != nil {
					logger.WithError(err).Warn("failed to count exception")
				}
				if err := scope.batch.Send(); err != nil {
					logger.WithError(err).Warn("failed to send request metrics")
				}
				logger.WithError(observability.PanicError(rec)).Error("unhandled panic in request")
				panic(rec)
			}
		}()

		next.ServeHTTP(w, r)

		i.finish(ctx, logger, scope)
	})
}

func (i *Instrumenter) finish(ctx context.Context, logger *observability.Logger, scope *Scope) {
	defer observability.RecoverPanic(logger, "request instrumentation")

	if i.config.TimeResponses {
		elapsed := scope.Elapsed()
		rate := i.config.TimingSampleRate
		emit(logger, scope.batch.TimingDuration(scope.viewName, elapsed, rate))
		emit(logger, scope.batch.TimingDuration(globalTiming, elapsed, rate))
		emit(logger, scope.batch.Incr(scope.viewName+".requests", 1, 1))
		emit(logger, scope.batch.Incr(globalRequests, 1, 1))
		logger.Debugf("processed %s in %v", scope.viewName, elapsed)
	}

	if err := scope.batch.Send(); err != nil {
		logger.WithError(err).Warn("failed to send request metrics")
	}

	if userID := scope.UserID(); userID != "" && i.config.TrackUserActivity && i.store != nil {
		i.touchLastSeen(ctx, logger.WithField("user_id", userID), userID)
	}
}

func (i *Instrumenter) stashRequest(ctx context.Context, logger *observability.Logger, scope *Scope, r *http.Request) {
	requestID := contextkeys.GetRequestID(ctx)
	if requestID == "" {
		return
	}
	timing := RenderTiming{
		Started:   scope.start,
		ViewName:  scope.viewName,
		UserAgent: r.UserAgent(),
	}
	if err := i.stash.Put(ctx, requestID, timing); err != nil {
		logger.WithError(err).Warn("failed to stash render timing")
	}
}

func emit(logger *observability.Logger, err error) {
	if err != nil {
		logger.WithError(err).Warn("failed to record request metric")
	}
}

var (
	templateVar = regexp.MustCompile(`\{([^}:]+)(:[^}]*)?\}`)
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)
)

// viewName builds the endpoint metric name from the matched route's name or
// path template
func (i *Instrumenter) viewName(r *http.Request) string {
	name := unmatchedView
	if route := mux.CurrentRoute(r); route != nil {
		if n := route.GetName(); n != "" {
			name = NormalizeName(n)
		} else if tpl, err := route.GetPathTemplate(); err == nil {
			name = NormalizeName(tpl)
		}
	}

	view := "view." + name
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		view += "_ajax"
	}
	if i.config.IncludeMethod {
		view += "." + strings.ToLower(r.Method)
	}
	return view
}

// NormalizeName turns a route name or path template into a dotted metric
// name segment, e.g. "/metrics/incr/{stat}" becomes "metrics.incr.stat"
func NormalizeName(name string) string {
	name = templateVar.ReplaceAllString(name, "$1")
	name = strings.ReplaceAll(name, "/", ".")
	name = unsafeChars.ReplaceAllString(name, "_")
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", ".")
	}
	name = strings.Trim(name, ".")
	if name == "" {
		return rootView
	}
	return name
}
