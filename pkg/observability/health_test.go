package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func decodeHealth(t *testing.T, rr *httptest.ResponseRecorder) HealthStatus {
	t.Helper()
	var status HealthStatus
	if err := json.NewDecoder(rr.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return status
}

func TestHealthChecker_Liveness(t *testing.T) {
	checker := NewHealthChecker(nil, nil)
	checker.AddCheck("database", true, func(context.Context) error { return errors.New("down") })

	rr := httptest.NewRecorder()
	checker.Liveness(rr, httptest.NewRequest("GET", "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Liveness returned %v, want %v", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %s", ct)
	}
}

func TestHealthChecker_Readiness(t *testing.T) {
	t.Run("healthy without dependencies", func(t *testing.T) {
		rr := httptest.NewRecorder()
		NewHealthChecker(nil, nil).Readiness(rr, httptest.NewRequest("GET", "/readyz", nil))

		if rr.Code != http.StatusOK {
			t.Errorf("Readiness returned %v, want %v", rr.Code, http.StatusOK)
		}
	})

	t.Run("unhealthy with failed database", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			t.Fatalf("Failed to create mock db: %v", err)
		}
		defer db.Close()
		mock.ExpectPing().WillReturnError(errors.New("connection failed"))

		rr := httptest.NewRecorder()
		NewHealthChecker(db, nil).Readiness(rr, httptest.NewRequest("GET", "/readyz", nil))

		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected %v, got %v", http.StatusServiceUnavailable, rr.Code)
		}
		status := decodeHealth(t, rr)
		if status.Status != StatusUnhealthy {
			t.Errorf("Expected status %s, got %s", StatusUnhealthy, status.Status)
		}
		if msg := status.Dependencies["database"].Message; msg != "connection failed" {
			t.Errorf("Unexpected message %q", msg)
		}
	})

	t.Run("degraded with failed redis", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			t.Fatalf("Failed to create mock db: %v", err)
		}
		defer db.Close()
		mock.ExpectPing()

		redisClient := redis.NewClient(&redis.Options{Addr: "localhost:9999", MaxRetries: -1})
		defer redisClient.Close()

		rr := httptest.NewRecorder()
		NewHealthChecker(db, redisClient).Readiness(rr, httptest.NewRequest("GET", "/readyz", nil))

		if rr.Code != http.StatusOK {
			t.Errorf("Expected %v for degraded, got %v", http.StatusOK, rr.Code)
		}
		status := decodeHealth(t, rr)
		if status.Status != StatusDegraded {
			t.Errorf("Expected status %s, got %s", StatusDegraded, status.Status)
		}
		if got := status.Dependencies["database"].Status; got != StatusHealthy {
			t.Errorf("Expected healthy database, got %s", got)
		}
	})
}

func TestHealthChecker_Check(t *testing.T) {
	t.Run("healthy database and redis", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			t.Fatalf("Failed to create mock db: %v", err)
		}
		defer db.Close()
		mock.ExpectPing()

		mr, err := miniredis.Run()
		if err != nil {
			t.Fatalf("Failed to start miniredis: %v", err)
		}
		defer mr.Close()

		redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer redisClient.Close()

		checker := NewHealthChecker(db, redisClient)
		checkedAt := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
		checker.now = func() time.Time { return checkedAt }

		status := checker.Check(context.Background())
		if status.Status != StatusHealthy {
			t.Errorf("Expected %s, got %s", StatusHealthy, status.Status)
		}
		if !status.CheckedAt.Equal(checkedAt) {
			t.Errorf("Expected checked_at %v, got %v", checkedAt, status.CheckedAt)
		}
		if len(status.Dependencies) != 2 {
			t.Errorf("Expected 2 dependencies, got %d", len(status.Dependencies))
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("required check failure is unhealthy", func(t *testing.T) {
		checker := NewHealthChecker(nil, nil)
		checker.AddCheck("cache", false, func(context.Context) error { return errors.New("slow") })
		checker.AddCheck("schema", true, func(context.Context) error { return errors.New("no such table") })

		status := checker.Check(context.Background())
		if status.Status != StatusUnhealthy {
			t.Errorf("Expected %s, got %s", StatusUnhealthy, status.Status)
		}
		if got := status.Dependencies["cache"].Status; got != StatusDegraded {
			t.Errorf("Expected degraded cache, got %s", got)
		}
		if msg := status.Dependencies["schema"].Message; msg != "no such table" {
			t.Errorf("Unexpected message %q", msg)
		}
	})
}

func TestRegisterHealthRoutes(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHealthRoutes(mux, NewHealthChecker(nil, nil))

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s returned %v", path, rr.Code)
		}
	}
}
