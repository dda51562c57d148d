package activity

import (
	"context"
	"fmt"
	"time"
)

// DefaultRetentionDays is how long DailyActivityRecords are kept
const DefaultRetentionDays = 90

// Cleanup deletes activity records dated before today minus days in a
// single bulk delete and returns the number of rows removed
func Cleanup(ctx context.Context, recorder ActivityRecorder, days int, now time.Time) (int64, error) {
	if days < 0 {
		return 0, fmt.Errorf("days must be non-negative, got %d", days)
	}

	cutoff := DayOf(now.AddDate(0, 0, -days))
	deleted, err := recorder.DeleteActivityBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup before %s failed: %w", cutoff, err)
	}
	return deleted, nil
}
