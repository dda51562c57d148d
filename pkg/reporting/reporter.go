package reporting

import (
	"context"
	"time"

	"github.com/platinummonkey/pulse/pkg/async"
	"github.com/platinummonkey/pulse/pkg/observability"
	"github.com/platinummonkey/pulse/pkg/statsd"
	"github.com/platinummonkey/pulse/pkg/tracking"
)

const (
	kindGauges   = "gauges"
	kindCounters = "counters"

	// DefaultWorkers bounds concurrent value resolution
	DefaultWorkers = 4
	// DefaultTimeout bounds the resolution of one value
	DefaultTimeout = 30 * time.Second
)

// Sender is implemented by buffering statters such as *statsd.Pipeline
type Sender interface {
	Send() error
}

// Summary counts the outcome of one run
type Summary struct {
	Reported int
	Failed   int
}

// Reporter pushes tracker values to StatsD
type Reporter struct {
	client   statsd.Statter
	trackers []tracking.Tracker
	logger   *observability.Logger
	workers  int
	timeout  time.Duration
	metrics  *observability.Metrics
}

// Option configures a Reporter
type Option func(*Reporter)

// WithWorkers sets how many values are resolved concurrently
func WithWorkers(n int) Option {
	return func(r *Reporter) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithTimeout bounds the resolution of each value
func WithTimeout(d time.Duration) Option {
	return func(r *Reporter) {
		r.timeout = d
	}
}

// WithMetrics records per-metric outcomes and run duration
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Reporter) {
		r.metrics = m
	}
}

// NewReporter creates a reporter. When client is a Sender it is sent once
// every tracker has been reported.
func NewReporter(client statsd.Statter, trackers []tracking.Tracker, logger *observability.Logger, opts ...Option) *Reporter {
	r := &Reporter{
		client:   client,
		trackers: trackers,
		logger:   logger,
		workers:  DefaultWorkers,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type job struct {
	kind   string
	metric tracking.Metric
}

// Run resolves and emits every gauge and counter of every tracker. Values
// are resolved concurrently and emitted in declaration order, gauges before
// counters within a tracker. A failing value is logged and skipped.
func (r *Reporter) Run(ctx context.Context) Summary {
	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.ReportDuration.Observe(time.Since(start).Seconds())
		}
	}()

	var jobs []job
	for _, t := range r.trackers {
		for _, m := range t.Gauges() {
			jobs = append(jobs, job{kind: kindGauges, metric: m})
		}
		for _, m := range t.Counters() {
			jobs = append(jobs, job{kind: kindCounters, metric: m})
		}
	}

	results := async.Map(ctx, jobs, r.workers, r.timeout, func(ctx context.Context, j job) (float64, error) {
		return j.metric.Source.Value(ctx)
	})

	var summary Summary
	for i, res := range results {
		j := jobs[i]
		if res.Err != nil {
			r.logger.WithError(res.Err).Errorf("%s::%s: NO VALUE", j.kind, j.metric.Name)
			r.observe(j.kind, "error")
			summary.Failed++
			continue
		}

		r.logger.Infof("%s: %v", j.metric.Name, res.Value)
		var err error
		if j.kind == kindGauges {
			err = r.client.Gauge(j.metric.Name, res.Value, false)
		} else {
			err = r.client.Incr(j.metric.Name, int64(res.Value), 1)
		}
		if err != nil {
			r.logger.WithError(err).WithField("metric", j.metric.Name).Warn("failed to emit metric")
		}
		r.observe(j.kind, "ok")
		summary.Reported++
	}

	if sender, ok := r.client.(Sender); ok {
		if err := sender.Send(); err != nil {
			r.logger.WithError(err).Warn("failed to send metrics batch")
		}
	}

	return summary
}

func (r *Reporter) observe(kind, status string) {
	if r.metrics != nil {
		r.metrics.TrackerMetricsTotal.WithLabelValues(kind, status).Inc()
	}
}
