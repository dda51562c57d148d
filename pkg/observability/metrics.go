package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's own Prometheus metrics. These describe the
// health of the pipeline itself, not the user metrics sent to StatsD.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// StatsD transport
	StatsdLinesTotal      prometheus.Counter
	StatsdSendErrorsTotal prometheus.Counter

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheErrorsTotal *prometheus.CounterVec

	// Activity metrics
	LastSeenUpdatesTotal *prometheus.CounterVec
	ActivityRecordsTotal *prometheus.CounterVec

	// Reporting metrics
	TrackerMetricsTotal *prometheus.CounterVec
	ReportDuration      prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulse_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		StatsdLinesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pulse_statsd_lines_total",
				Help: "Total number of StatsD lines written",
			},
		),
		StatsdSendErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pulse_statsd_send_errors_total",
				Help: "Total number of failed StatsD datagram writes",
			},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_cache_hits_total",
				Help: "Total number of metric cache hits",
			},
			[]string{"backend"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_cache_misses_total",
				Help: "Total number of metric cache misses",
			},
			[]string{"backend"},
		),
		CacheErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_cache_errors_total",
				Help: "Total number of cache backend errors",
			},
			[]string{"backend", "operation"},
		),

		LastSeenUpdatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_last_seen_updates_total",
				Help: "Last-seen updates by result",
			},
			[]string{"result"},
		),
		ActivityRecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_activity_records_total",
				Help: "Daily activity submissions by result",
			},
			[]string{"result"},
		),

		TrackerMetricsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_tracker_metrics_total",
				Help: "Tracker metric resolutions by status",
			},
			[]string{"kind", "status"},
		),
		ReportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pulse_report_duration_seconds",
				Help:    "Duration of a full tracker report",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30},
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.StatsdLinesTotal,
		m.StatsdSendErrorsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheErrorsTotal,
		m.LastSeenUpdatesTotal,
		m.ActivityRecordsTotal,
		m.TrackerMetricsTotal,
		m.ReportDuration,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// Requests are labelled by route template to keep cardinality bounded.
func HTTPMetricsMiddleware(metrics *Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := "unmatched"
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
