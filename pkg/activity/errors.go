package activity

import (
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a user has no LastSeenData row
	ErrNotFound = errors.New("last seen data not found")

	// ErrInvalidEventName is returned for empty or oversized event names
	ErrInvalidEventName = errors.New("invalid event name")

	// ErrInvalidIdentifier is returned for unsafe table or column names
	ErrInvalidIdentifier = errors.New("invalid SQL identifier")
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err was caused by a uniqueness
// constraint on either supported driver
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	return false
}
