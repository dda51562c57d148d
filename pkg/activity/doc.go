// Package activity persists per-user activity: a LastSeenData row per user
// and append-only DailyActivityRecords.
//
// # Overview
//
// LastSeenData keeps a sliding two-bucket view of each user's activity.
// Touch applies the update rule for one qualifying request and reports
// whether the row needs saving, so callers write at most once per
// five-minute window.
//
// DailyActivityRecord is unique on (user, event, day). Recording the same
// event twice on one day is not an error; RecordActivity simply reports
// that nothing new was written.
//
// SQLStore works on PostgreSQL (lib/pq) and SQLite (go-sqlite3). Queries are
// written with ? placeholders and rebound for PostgreSQL.
//
// # Usage Example
//
//	store, err := activity.NewSQLStore(db, activity.Options{Driver: activity.DriverPostgres})
//	if err != nil {
//		return err
//	}
//	if err := activity.Migrate(ctx, db, activity.DriverPostgres); err != nil {
//		return err
//	}
//
//	inserted, err := store.RecordActivity(ctx, userID, "signup-wizard", activity.DayOf(time.Now()))
//
//	deleted, err := activity.Cleanup(ctx, store, activity.DefaultRetentionDays, time.Now())
package activity
