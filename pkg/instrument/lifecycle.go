package instrument

import (
	"context"
	"time"

	"github.com/platinummonkey/pulse/pkg/activity"
	"github.com/platinummonkey/pulse/pkg/observability"
	"github.com/platinummonkey/pulse/pkg/statsd"
)

// Lifecycle records account events reported by the host application
type Lifecycle struct {
	client statsd.Statter
	store  activity.LastSeenStore
	logger *observability.Logger
	now    func() time.Time
}

// NewLifecycle creates a Lifecycle. store may be nil to skip LastSeenData
// creation.
func NewLifecycle(client statsd.Statter, store activity.LastSeenStore, logger *observability.Logger) *Lifecycle {
	return &Lifecycle{client: client, store: store, logger: logger, now: time.Now}
}

// RecordNewUser counts a registration and creates the user's LastSeenData
func (l *Lifecycle) RecordNewUser(ctx context.Context, userID string) error {
	logger := l.logger.WithField("user_id", userID)

	if err := l.client.Incr("users.new", 1, 1); err != nil {
		logger.WithError(err).Warn("failed to count new user")
	}

	if l.store == nil {
		return nil
	}
	_, err := createLastSeen(ctx, l.store, logger, activity.NewLastSeenData(userID, l.now()))
	return err
}

// RecordLogin counts a successful login
func (l *Lifecycle) RecordLogin(ctx context.Context, userID string) error {
	if err := l.client.Incr("users.login", 1, 1); err != nil {
		l.logger.WithField("user_id", userID).WithError(err).Warn("failed to count login")
		return err
	}
	return nil
}
