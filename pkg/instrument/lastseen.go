package instrument

import (
	"context"
	"errors"

	"github.com/platinummonkey/pulse/pkg/activity"
	"github.com/platinummonkey/pulse/pkg/observability"
)

// last-seen update outcomes
const (
	lastSeenCreated   = "created"
	lastSeenUpdated   = "updated"
	lastSeenUnchanged = "unchanged"
	lastSeenRace      = "race"
	lastSeenError     = "error"
)

// touchLastSeen loads or lazily creates the user's LastSeenData and applies
// one activity at the current time. Failures are logged, never returned.
func (i *Instrumenter) touchLastSeen(ctx context.Context, logger *observability.Logger, userID string) {
	result := i.applyLastSeen(ctx, logger, userID)
	if i.metrics != nil {
		i.metrics.LastSeenUpdatesTotal.WithLabelValues(result).Inc()
	}
}

func (i *Instrumenter) applyLastSeen(ctx context.Context, logger *observability.Logger, userID string) string {
	now := i.now()

	data, err := i.store.GetLastSeen(ctx, userID)
	if errors.Is(err, activity.ErrNotFound) {
		data = activity.NewLastSeenData(userID, now)
		data.Touch(now)
		result, _ := createLastSeen(ctx, i.store, logger, data)
		return result
	}
	if err != nil {
		logger.WithError(err).Error("failed to load last seen data")
		return lastSeenError
	}

	if !data.Touch(now) {
		return lastSeenUnchanged
	}
	if err := i.store.UpdateLastSeen(ctx, data); err != nil {
		logger.WithError(err).Error("failed to update last seen data")
		return lastSeenError
	}
	return lastSeenUpdated
}

// createLastSeen inserts data. A concurrent insert for the same user wins
// and this write is dropped.
func createLastSeen(ctx context.Context, store activity.LastSeenStore, logger *observability.Logger, data *activity.LastSeenData) (string, error) {
	if err := store.CreateLastSeen(ctx, data); err != nil {
		if activity.IsUniqueViolation(err) {
			logger.Debug("last seen data already created concurrently")
			return lastSeenRace, nil
		}
		logger.WithError(err).Error("failed to create last seen data")
		return lastSeenError, err
	}
	return lastSeenCreated, nil
}
