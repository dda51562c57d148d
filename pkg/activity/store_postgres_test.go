package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func setupMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLStore(db, Options{Driver: DriverPostgres, UsersTable: "auth_user"})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store, mock
}

func TestRebind(t *testing.T) {
	got := rebind(DriverPostgres, "SELECT * FROM t WHERE a = ? AND b = ?")
	if got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Errorf("unexpected postgres query: %s", got)
	}

	query := "SELECT * FROM t WHERE a = ?"
	if rebind(DriverSQLite, query) != query {
		t.Error("sqlite queries should be left untouched")
	}
}

func TestPostgres_RecordActivity(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(`INSERT INTO daily_activity_records \(user_id, event_name, day\)\s+VALUES \(\$1, \$2, \$3\)`).
		WithArgs("42", "foo", "2026-10-19").
		WillReturnResult(sqlmock.NewResult(1, 1))

	inserted, err := store.RecordActivity(context.Background(), "42", "foo", "2026-10-19")
	if err != nil {
		t.Fatalf("RecordActivity failed: %v", err)
	}
	if !inserted {
		t.Error("Expected a new record")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestPostgres_RecordActivityDuplicateSwallowed(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec("INSERT INTO daily_activity_records").
		WithArgs("42", "foo", "2026-10-19").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	inserted, err := store.RecordActivity(context.Background(), "42", "foo", "2026-10-19")
	if err != nil {
		t.Fatalf("Duplicate should not be an error, got %v", err)
	}
	if inserted {
		t.Error("Duplicate should not report an insert")
	}
}

func TestPostgres_RecordActivityOtherError(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec("INSERT INTO daily_activity_records").
		WillReturnError(errors.New("connection reset"))

	if _, err := store.RecordActivity(context.Background(), "42", "foo", "2026-10-19"); err == nil {
		t.Error("Expected error to propagate")
	}
}

func TestPostgres_DeleteActivityBefore(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(`DELETE FROM daily_activity_records WHERE day < \$1`).
		WithArgs("2026-07-21").
		WillReturnResult(sqlmock.NewResult(0, 7))

	deleted, err := store.DeleteActivityBefore(context.Background(), "2026-07-21")
	if err != nil {
		t.Fatalf("DeleteActivityBefore failed: %v", err)
	}
	if deleted != 7 {
		t.Errorf("Expected 7 deleted, got %d", deleted)
	}
}

func TestPostgres_CountJoinedSinceUsesConfiguredTable(t *testing.T) {
	store, mock := setupMockStore(t)
	since := time.Date(2026, 9, 19, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM auth_user WHERE date_joined >= \$1`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	n, err := store.CountJoinedSince(context.Background(), since)
	if err != nil {
		t.Fatalf("CountJoinedSince failed: %v", err)
	}
	if n != 12 {
		t.Errorf("Expected 12, got %d", n)
	}
}

func TestPostgres_CountReturningPlaceholders(t *testing.T) {
	store, mock := setupMockStore(t)
	end := time.Date(2026, 9, 19, 0, 0, 0, 0, time.UTC)
	start := end.Add(-Month)

	mock.ExpectQuery(`last_seen >= \$7`).
		WithArgs(start, start, start, end, end, end, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := store.CountReturning(context.Background(), start, end)
	if err != nil {
		t.Fatalf("CountReturning failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3, got %d", n)
	}
}

func TestPostgres_GetLastSeenNotFound(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery("FROM last_seen_data").
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "last_seen", "active_this_month", "active_last_month"}))

	if _, err := store.GetLastSeen(context.Background(), "42"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"postgres unique", &pq.Error{Code: "23505"}, true},
		{"postgres other", &pq.Error{Code: "23503"}, false},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, true},
		{"sqlite not null", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, false},
		{"wrapped", errors.Join(errors.New("ctx"), &pq.Error{Code: "23505"}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
