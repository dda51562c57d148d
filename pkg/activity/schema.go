package activity

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS last_seen_data (
		id BIGSERIAL PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL UNIQUE,
		last_seen TIMESTAMPTZ NOT NULL,
		active_this_month TIMESTAMPTZ NULL,
		active_last_month TIMESTAMPTZ NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_last_seen_data_last_seen ON last_seen_data (last_seen)`,
	`CREATE INDEX IF NOT EXISTS idx_last_seen_data_this_month ON last_seen_data (active_this_month)`,
	`CREATE INDEX IF NOT EXISTS idx_last_seen_data_last_month ON last_seen_data (active_last_month)`,
	`CREATE TABLE IF NOT EXISTS daily_activity_records (
		id BIGSERIAL PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		event_name VARCHAR(255) NOT NULL,
		day VARCHAR(10) NOT NULL,
		UNIQUE (user_id, event_name, day)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_daily_activity_records_day ON daily_activity_records (day)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS last_seen_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL UNIQUE,
		last_seen TIMESTAMP NOT NULL,
		active_this_month TIMESTAMP NULL,
		active_last_month TIMESTAMP NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_last_seen_data_last_seen ON last_seen_data (last_seen)`,
	`CREATE TABLE IF NOT EXISTS daily_activity_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		event_name TEXT NOT NULL,
		day TEXT NOT NULL,
		UNIQUE (user_id, event_name, day)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_daily_activity_records_day ON daily_activity_records (day)`,
}

// Migrate creates the activity tables if they do not exist. The users
// table belongs to the host application and is never created here.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case DriverPostgres:
		stmts = postgresSchema
	case DriverSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("unsupported driver: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// activityTables are the tables Migrate owns
var activityTables = []string{"last_seen_data", "daily_activity_records"}

// CheckSchema verifies the activity tables are present and readable
func CheckSchema(ctx context.Context, db *sql.DB) error {
	for _, table := range activityTables {
		rows, err := db.QueryContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1")
		if err != nil {
			return fmt.Errorf("table %s unavailable: %w", table, err)
		}
		rows.Close()
	}
	return nil
}

// validIdentifier reports whether name is safe to interpolate into SQL
func validIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// rebind rewrites ? placeholders into $N for PostgreSQL
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
