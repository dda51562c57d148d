package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/pulse/pkg/activity"
	"github.com/platinummonkey/pulse/pkg/contextkeys"
	"github.com/platinummonkey/pulse/pkg/instrument"
	"github.com/platinummonkey/pulse/pkg/observability"
	"github.com/platinummonkey/pulse/pkg/statsd"
)

// Server serves the metric pixel endpoints
type Server struct {
	client   statsd.Statter
	recorder activity.ActivityRecorder
	stash    *instrument.RenderStash
	logger   *observability.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// Option configures a Server
type Option func(*Server)

// WithActivityRecorder enables /metrics/activity
func WithActivityRecorder(recorder activity.ActivityRecorder) Option {
	return func(s *Server) {
		s.recorder = recorder
	}
}

// WithRenderStash enables /metrics/report-request-rendered
func WithRenderStash(stash *instrument.RenderStash) Option {
	return func(s *Server) {
		s.stash = stash
	}
}

// WithMetrics records activity submission outcomes
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer creates a Server. client is used when a request is not running
// under the instrumentation middleware.
func NewServer(client statsd.Statter, logger *observability.Logger, opts ...Option) *Server {
	s := &Server{
		client: client,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRoutes mounts the endpoints on r. Every route accepts GET and POST
// with or without a trailing slash.
func (s *Server) RegisterRoutes(r *mux.Router) {
	s.handle(r, "/metrics/incr/{stat}", s.incr)
	s.handle(r, "/metrics/decr/{stat}", s.decr)
	s.handle(r, "/metrics/timing/{stat}", s.timing)
	s.handle(r, "/metrics/gauge/{stat}", s.gauge)

	if s.recorder != nil {
		s.handle(r, "/metrics/activity/{what}", s.recordActivity)
	}
	if s.stash != nil {
		s.handle(r, "/metrics/report-request-rendered/{request_id}", s.reportRendered)
	}
}

func (s *Server) handle(r *mux.Router, path string, h http.HandlerFunc) {
	r.HandleFunc(path, h).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc(path+"/", h).Methods(http.MethodGet, http.MethodPost)
}

// statter returns the request's batching statter when the instrumentation
// middleware is active, otherwise the server's client
func (s *Server) statter(r *http.Request) statsd.Statter {
	if scope := instrument.ScopeFromContext(r.Context()); scope != nil {
		return scope.Statter()
	}
	return s.client
}

func (s *Server) requestLogger(r *http.Request) *observability.Logger {
	ctx := r.Context()
	if _, ok := ctx.Value(contextkeys.LoggerKey).(*observability.Logger); ok {
		return observability.FromContext(ctx)
	}
	return s.logger
}
