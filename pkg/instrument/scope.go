package instrument

import (
	"context"
	"sync"
	"time"

	"github.com/platinummonkey/pulse/pkg/contextkeys"
	"github.com/platinummonkey/pulse/pkg/observability"
	"github.com/platinummonkey/pulse/pkg/statsd"
)

// Scope holds the instrumentation state of one request
type Scope struct {
	batch    statsd.Batcher
	viewName string
	start    time.Time
	now      func() time.Time

	mu     sync.Mutex
	userID string
}

// ScopeFromContext returns the request scope, or nil outside instrumented
// requests
func ScopeFromContext(ctx context.Context) *Scope {
	scope, _ := ctx.Value(contextkeys.ScopeKey).(*Scope)
	return scope
}

// Statter returns the request's batching statter. Lines are sent when the
// request completes.
func (s *Scope) Statter() statsd.Statter {
	return s.batch
}

// ViewName returns the endpoint metric name, such as "view.metrics.incr.stat"
func (s *Scope) ViewName() string {
	return s.viewName
}

// Started returns when the request began
func (s *Scope) Started() time.Time {
	return s.start
}

// Elapsed returns the time since the request began
func (s *Scope) Elapsed() time.Duration {
	return s.now().Sub(s.start)
}

// SetUserID attributes the request to a user authenticated inside the
// handler, for last-seen tracking
func (s *Scope) SetUserID(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

// UserID returns the user the request is attributed to
func (s *Scope) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// RecordException counts a handled error against the request's endpoint.
// It is a no-op outside instrumented requests or when err is nil.
func RecordException(ctx context.Context, err error) {
	scope := ScopeFromContext(ctx)
	if scope == nil || err == nil {
		return
	}
	if cerr := scope.countException(); cerr != nil {
		observability.FromContext(ctx).WithError(cerr).Warn("failed to count exception")
	}
}

func (s *Scope) countException() error {
	if err := s.batch.Incr(globalExceptions, 1, 1); err != nil {
		return err
	}
	return s.batch.Incr(s.viewName+".exceptions", 1, 1)
}
