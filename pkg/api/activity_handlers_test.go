package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/pulse/pkg/activity"
	"github.com/platinummonkey/pulse/pkg/contextkeys"
	"github.com/platinummonkey/pulse/pkg/observability"
	"github.com/platinummonkey/pulse/pkg/statsd/statsdtest"
)

type recordCall struct {
	userID, event, day string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordCall
	seen  map[recordCall]bool
	err   error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{seen: map[recordCall]bool{}}
}

func (f *fakeRecorder) RecordActivity(ctx context.Context, userID, eventName string, day string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := recordCall{userID, eventName, day}
	f.calls = append(f.calls, c)
	if f.err != nil {
		return false, f.err
	}
	if f.seen[c] {
		return false, nil
	}
	f.seen[c] = true
	return true, nil
}

func (f *fakeRecorder) DeleteActivityBefore(ctx context.Context, day string) (int64, error) {
	return 0, nil
}

// withUser authenticates every request as userID
func withUser(h http.Handler, userID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(contextkeys.WithUserID(r.Context(), userID)))
	})
}

func TestActivity_RecordsForUser(t *testing.T) {
	recorder := newFakeRecorder()
	obs := observability.NewMetrics(prometheus.NewRegistry())
	s := NewServer(statsdtest.NewRecorder(), testLogger(),
		WithActivityRecorder(recorder),
		WithMetrics(obs),
		WithClock(func() time.Time { return testNow }),
	)
	router := withUser(newTestRouter(s), "42")

	w := get(router, "/metrics/activity/login")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Pixel, w.Body.Bytes())

	w = post(router, "/metrics/activity/login/", url.Values{})
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, []recordCall{
		{"42", "login", "2026-10-19"},
		{"42", "login", "2026-10-19"},
	}, recorder.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(obs.ActivityRecordsTotal.WithLabelValues("created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(obs.ActivityRecordsTotal.WithLabelValues("duplicate")))
}

func TestActivity_AnonymousRecordsNothing(t *testing.T) {
	recorder := newFakeRecorder()
	router := newTestRouter(NewServer(statsdtest.NewRecorder(), testLogger(), WithActivityRecorder(recorder)))

	w := get(router, "/metrics/activity/login")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, recorder.calls)
}

func TestActivity_FailureStillAnswers(t *testing.T) {
	recorder := newFakeRecorder()
	recorder.err = errors.New("database is locked")
	router := withUser(newTestRouter(NewServer(statsdtest.NewRecorder(), testLogger(), WithActivityRecorder(recorder))), "42")

	w := post(router, "/metrics/activity/login", url.Values{})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestActivity_SQLiteDedupe(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, activity.Migrate(ctx, db, activity.DriverSQLite))
	store, err := activity.NewSQLStore(db, activity.Options{Driver: activity.DriverSQLite})
	require.NoError(t, err)

	clock := testNow
	s := NewServer(statsdtest.NewRecorder(), testLogger(),
		WithActivityRecorder(store),
		WithClock(func() time.Time { return clock }),
	)
	router := withUser(newTestRouter(s), "7")

	get(router, "/metrics/activity/search")
	get(router, "/metrics/activity/search")
	clock = testNow.Add(24 * time.Hour)
	get(router, "/metrics/activity/search")

	records, err := store.ListActivity(ctx, "7")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2026-10-19", records[0].Day)
	assert.Equal(t, "2026-10-20", records[1].Day)
}

func TestActivity_LatestContextUser(t *testing.T) {
	recorder := newFakeRecorder()
	s := NewServer(statsdtest.NewRecorder(), testLogger(), WithActivityRecorder(recorder))

	req := httptest.NewRequest(http.MethodGet, "/metrics/activity/view", nil)
	req = req.WithContext(contextkeys.WithUserID(req.Context(), "1"))
	assert.Equal(t, "1", activityUser(req))

	router := newTestRouter(s)
	withUser(router, "2").ServeHTTP(httptest.NewRecorder(), req)
	require.Len(t, recorder.calls, 1)
	assert.Equal(t, "2", recorder.calls[0].userID)
}
