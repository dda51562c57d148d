package activity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LastSeenStore persists LastSeenData
type LastSeenStore interface {
	GetLastSeen(ctx context.Context, userID string) (*LastSeenData, error)
	CreateLastSeen(ctx context.Context, data *LastSeenData) error
	UpdateLastSeen(ctx context.Context, data *LastSeenData) error
}

// ActivityRecorder persists DailyActivityRecords
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, userID, eventName string, day string) (bool, error)
	DeleteActivityBefore(ctx context.Context, day string) (int64, error)
}

// StatsReader answers the counting queries behind the aggregate metrics
type StatsReader interface {
	CountSeenSince(ctx context.Context, since time.Time) (int64, error)
	CountJoinedSince(ctx context.Context, since time.Time) (int64, error)
	CountLastMonth(ctx context.Context, windowStart, windowEnd time.Time) (int64, error)
	CountReturning(ctx context.Context, windowStart, windowEnd time.Time) (int64, error)
	CountChurned(ctx context.Context, windowStart, windowEnd time.Time) (int64, error)
}

// Store is the full activity persistence surface
type Store interface {
	LastSeenStore
	ActivityRecorder
	StatsReader
}

// Options configures an SQLStore
type Options struct {
	// Driver is DriverPostgres or DriverSQLite
	Driver string
	// UsersTable is the host application's user table
	UsersTable string
	// JoinedColumn is the registration timestamp column of UsersTable
	JoinedColumn string
}

// SQLStore implements Store on database/sql
type SQLStore struct {
	db           *sql.DB
	driver       string
	usersTable   string
	joinedColumn string
}

// NewSQLStore creates a store over an open database
func NewSQLStore(db *sql.DB, opts Options) (*SQLStore, error) {
	if opts.Driver == "" {
		opts.Driver = DriverPostgres
	}
	if opts.Driver != DriverPostgres && opts.Driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported driver: %s", opts.Driver)
	}
	if opts.UsersTable == "" {
		opts.UsersTable = "users"
	}
	if opts.JoinedColumn == "" {
		opts.JoinedColumn = "date_joined"
	}
	if !validIdentifier(opts.UsersTable) || !validIdentifier(opts.JoinedColumn) {
		return nil, fmt.Errorf("%w: %s.%s", ErrInvalidIdentifier, opts.UsersTable, opts.JoinedColumn)
	}

	return &SQLStore{
		db:           db,
		driver:       opts.Driver,
		usersTable:   opts.UsersTable,
		joinedColumn: opts.JoinedColumn,
	}, nil
}

// DB returns the underlying database handle
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) q(query string) string {
	return rebind(s.driver, query)
}

// GetLastSeen loads a user's LastSeenData, or ErrNotFound
func (s *SQLStore) GetLastSeen(ctx context.Context, userID string) (*LastSeenData, error) {
	query := s.q(`
		SELECT id, user_id, last_seen, active_this_month, active_last_month
		FROM last_seen_data
		WHERE user_id = ?
	`)

	var data LastSeenData
	var thisMonth, lastMonth sql.NullTime
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&data.ID, &data.UserID, &data.LastSeen, &thisMonth, &lastMonth,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last seen data: %w", err)
	}

	data.LastSeen = data.LastSeen.UTC()
	data.ActiveThisMonth = fromNullTime(thisMonth)
	data.ActiveLastMonth = fromNullTime(lastMonth)
	return &data, nil
}

// CreateLastSeen inserts a new row. A concurrent insert for the same user
// surfaces as an error satisfying IsUniqueViolation.
func (s *SQLStore) CreateLastSeen(ctx context.Context, data *LastSeenData) error {
	query := s.q(`
		INSERT INTO last_seen_data (user_id, last_seen, active_this_month, active_last_month)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)

	err := s.db.QueryRowContext(ctx, query,
		data.UserID,
		data.LastSeen.UTC(),
		toNullTime(data.ActiveThisMonth),
		toNullTime(data.ActiveLastMonth),
	).Scan(&data.ID)
	if err != nil {
		return fmt.Errorf("failed to create last seen data: %w", err)
	}
	return nil
}

// UpdateLastSeen saves all timestamp fields of an existing row
func (s *SQLStore) UpdateLastSeen(ctx context.Context, data *LastSeenData) error {
	query := s.q(`
		UPDATE last_seen_data
		SET last_seen = ?, active_this_month = ?, active_last_month = ?
		WHERE user_id = ?
	`)

	result, err := s.db.ExecContext(ctx, query,
		data.LastSeen.UTC(),
		toNullTime(data.ActiveThisMonth),
		toNullTime(data.ActiveLastMonth),
		data.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update last seen data: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordActivity inserts a DailyActivityRecord and reports whether a new
// row was written. A duplicate for the same user, event and day is not an
// error.
func (s *SQLStore) RecordActivity(ctx context.Context, userID, eventName string, day string) (bool, error) {
	if eventName == "" || len(eventName) > MaxEventNameLength {
		return false, ErrInvalidEventName
	}

	query := s.q(`
		INSERT INTO daily_activity_records (user_id, event_name, day)
		VALUES (?, ?, ?)
	`)

	_, err := s.db.ExecContext(ctx, query, userID, eventName, day)
	if IsUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to record activity: %w", err)
	}
	return true, nil
}

// ListActivity returns a user's activity records ordered by day
func (s *SQLStore) ListActivity(ctx context.Context, userID string) ([]DailyActivityRecord, error) {
	query := s.q(`
		SELECT id, user_id, event_name, day
		FROM daily_activity_records
		WHERE user_id = ?
		ORDER BY day, event_name
	`)

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var records []DailyActivityRecord
	for rows.Next() {
		var r DailyActivityRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.EventName, &r.Day); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteActivityBefore removes every record with day strictly before day
func (s *SQLStore) DeleteActivityBefore(ctx context.Context, day string) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.q(`DELETE FROM daily_activity_records WHERE day < ?`), day)
	if err != nil {
		return 0, fmt.Errorf("failed to delete activity: %w", err)
	}
	return result.RowsAffected()
}

// CountSeenSince counts users with last_seen at or after since
func (s *SQLStore) CountSeenSince(ctx context.Context, since time.Time) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM last_seen_data WHERE last_seen >= ?`, since.UTC())
}

// CountJoinedSince counts users registered at or after since
func (s *SQLStore) CountJoinedSince(ctx context.Context, since time.Time) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s >= ?`, s.usersTable, s.joinedColumn)
	return s.count(ctx, query, since.UTC())
}

// lastMonthClause matches users with some activity timestamp inside
// [windowStart, now) and some timestamp before windowEnd
const lastMonthClause = `
	(last_seen >= ? OR active_this_month >= ? OR active_last_month >= ?)
	AND (last_seen < ? OR active_this_month < ? OR active_last_month < ?)`

func windowArgs(windowStart, windowEnd time.Time) []interface{} {
	start, end := windowStart.UTC(), windowEnd.UTC()
	return []interface{}{start, start, start, end, end, end}
}

// CountLastMonth counts users active in the previous 30-day window
func (s *SQLStore) CountLastMonth(ctx context.Context, windowStart, windowEnd time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM last_seen_data WHERE` + lastMonthClause
	return s.count(ctx, query, windowArgs(windowStart, windowEnd)...)
}

// CountReturning counts last-month users seen again since windowEnd
func (s *SQLStore) CountReturning(ctx context.Context, windowStart, windowEnd time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM last_seen_data WHERE` + lastMonthClause + ` AND last_seen >= ?`
	args := append(windowArgs(windowStart, windowEnd), windowEnd.UTC())
	return s.count(ctx, query, args...)
}

// CountChurned counts last-month users not seen since windowEnd
func (s *SQLStore) CountChurned(ctx context.Context, windowStart, windowEnd time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM last_seen_data WHERE` + lastMonthClause + ` AND last_seen <= ?`
	args := append(windowArgs(windowStart, windowEnd), windowEnd.UTC())
	return s.count(ctx, query, args...)
}

func (s *SQLStore) count(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, s.q(query), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return n, nil
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
