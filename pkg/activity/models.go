package activity

import "time"

const (
	// Day is the window used for daily active users
	Day = 24 * time.Hour
	// Month is the rolling 30-day activity window
	Month = 30 * Day
	// LastSeenResolution limits how often last_seen is refreshed
	LastSeenResolution = 5 * time.Minute

	// DayLayout is the storage format of DailyActivityRecord.Day
	DayLayout = "2006-01-02"

	// MaxEventNameLength bounds DailyActivityRecord.EventName
	MaxEventNameLength = 255
)

// LastSeenData tracks when a user was last active and whether they were
// active in the current and previous 30-day windows
type LastSeenData struct {
	ID              int64
	UserID          string
	LastSeen        time.Time
	ActiveThisMonth *time.Time
	ActiveLastMonth *time.Time
}

// NewLastSeenData returns an unsaved record for a user first seen at now
func NewLastSeenData(userID string, now time.Time) *LastSeenData {
	return &LastSeenData{
		UserID:   userID,
		LastSeen: now,
	}
}

// Touch applies one qualifying activity at now and reports whether any
// field changed. Rules are applied in order:
//
//  1. active_last_month takes active_this_month when it is unset or at
//     least 60 days old.
//  2. last_seen moves to now when it is unset or older than 5 minutes.
//  3. active_this_month takes last_seen when it is unset or at least
//     30 days old.
func (d *LastSeenData) Touch(now time.Time) bool {
	thisMonth := now.Add(-Month)
	lastMonth := now.Add(-2 * Month)
	recent := now.Add(-LastSeenResolution)
	changed := false

	if d.ActiveLastMonth == nil || !d.ActiveLastMonth.After(lastMonth) {
		d.ActiveLastMonth = copyTime(d.ActiveThisMonth)
		changed = true
	}

	if d.LastSeen.IsZero() || d.LastSeen.Before(recent) {
		d.LastSeen = now
		changed = true
	}

	if d.ActiveThisMonth == nil || !d.ActiveThisMonth.After(thisMonth) {
		seen := d.LastSeen
		d.ActiveThisMonth = &seen
		changed = true
	}

	return changed
}

// DailyActivityRecord marks that a user performed a named event on a day
type DailyActivityRecord struct {
	ID        int64
	UserID    string
	EventName string
	Day       string
}

// DayOf formats t as a DailyActivityRecord day in UTC
func DayOf(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
