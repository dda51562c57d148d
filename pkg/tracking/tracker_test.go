package tracking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSources(t *testing.T) {
	ctx := context.Background()

	v, err := Static(5).Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)

	v, err = Func(func(context.Context) (float64, error) { return 0.5, nil }).Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	v, err = CountFunc(func(context.Context) (int64, error) { return 20, nil }).Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20.0, v)

	_, err = CountFunc(func(context.Context) (int64, error) { return 0, errors.New("boom") }).Value(ctx)
	assert.EqualError(t, err, "boom")
}

func TestNewStaticValuesTracker_SortsNames(t *testing.T) {
	tracker := NewStaticValuesTracker("signups",
		map[string]float64{"b.gauge": 2, "a.gauge": 1},
		map[string]float64{"c.counter": 3},
	)

	assert.Equal(t, "signups", tracker.ID())
	require.Len(t, tracker.Gauges(), 2)
	assert.Equal(t, "a.gauge", tracker.Gauges()[0].Name)
	assert.Equal(t, "b.gauge", tracker.Gauges()[1].Name)
	require.Len(t, tracker.Counters(), 1)

	v, err := tracker.Counters()[0].Source.Value(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry()
	r.RegisterTracker(NewStaticValuesTracker("test", map[string]float64{"things.foo": 5}, nil))
	r.Register("broken", func() (Tracker, error) { return nil, errors.New("no database") })

	trackers, err := r.Resolve([]string{"test", " ", ""})
	require.NoError(t, err)
	require.Len(t, trackers, 1)
	assert.Equal(t, "test", trackers[0].ID())

	_, err = r.Resolve([]string{"test", "missing"})
	assert.ErrorIs(t, err, ErrUnknownTracker)
	assert.Contains(t, err.Error(), "missing")

	_, err = r.Resolve([]string{"broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database")

	assert.Equal(t, []string{"broken", "test"}, r.IDs())
}

func TestUserAccounts_GaugeNames(t *testing.T) {
	m := newTestMetrics(&fakeStats{daily: 2, monthly: 4})
	trackers, err := DefaultRegistry(m).Resolve([]string{UserAccountsID})
	require.NoError(t, err)
	require.Len(t, trackers, 1)

	var names []string
	for _, g := range trackers[0].Gauges() {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{
		"users.new_this_month",
		"users.active.daily",
		"users.active.monthly",
		"users.active.last_month",
		"users.active.returning_this_month",
		"users.churned",
		"users.retention_rate",
		"users.churn_rate",
		"users.average_duration",
		"users.engagement_ratio",
	}, names)
	assert.Empty(t, trackers[0].Counters())

	v, err := trackers[0].Gauges()[9].Source.Value(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
}
