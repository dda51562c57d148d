package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/pulse/pkg/observability"
	"github.com/platinummonkey/pulse/pkg/statsd/statsdtest"
	"github.com/platinummonkey/pulse/pkg/tracking"
)

func testTracker() tracking.Tracker {
	return tracking.NewStaticTracker("test",
		[]tracking.Metric{{Name: "things.foo", Source: tracking.Static(5)}},
		[]tracking.Metric{{Name: "stuff.bar", Source: tracking.Static(20)}},
	)
}

func TestReporter_EmitsGaugesAndCounters(t *testing.T) {
	rec := statsdtest.NewPipelineRecorder()
	logger := observability.NewLogger(observability.InfoLevel, &bytes.Buffer{})

	summary := NewReporter(rec, []tracking.Tracker{testTracker()}, logger).Run(context.Background())

	assert.Equal(t, Summary{Reported: 2, Failed: 0}, summary)
	assert.Equal(t, 1, rec.Sends())
	assert.Empty(t, rec.Pending())

	calls := rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, statsdtest.Call{Kind: "gauge", Stat: "things.foo", Value: 5, Rate: 1}, calls[0])
	assert.Equal(t, statsdtest.Call{Kind: "incr", Stat: "stuff.bar", Value: 20, Rate: 1}, calls[1])
}

func TestReporter_ContinuesAfterFailure(t *testing.T) {
	rec := statsdtest.NewPipelineRecorder()
	var logs bytes.Buffer
	logger := observability.NewLogger(observability.InfoLevel, &logs)
	obs := observability.NewMetrics(prometheus.NewRegistry())

	tracker := tracking.NewStaticTracker("mixed",
		[]tracking.Metric{
			{Name: "users.broken", Source: tracking.Func(func(context.Context) (float64, error) {
				return 0, errors.New("relation does not exist")
			})},
			{Name: "users.ok", Source: tracking.Static(1.5)},
		},
		[]tracking.Metric{
			{Name: "users.panicky", Source: tracking.Func(func(context.Context) (float64, error) {
				panic("nil tracker")
			})},
		},
	)

	summary := NewReporter(rec, []tracking.Tracker{tracker}, logger, WithMetrics(obs), WithWorkers(2)).Run(context.Background())

	assert.Equal(t, Summary{Reported: 1, Failed: 2}, summary)
	assert.Equal(t, []string{"users.ok"}, rec.Stats("gauge"))
	assert.Equal(t, 1, rec.Sends())

	var messages []string
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		messages = append(messages, entry["msg"].(string))
	}
	assert.Contains(t, messages, "gauges::users.broken: NO VALUE")
	assert.Contains(t, messages, "counters::users.panicky: NO VALUE")
	assert.Contains(t, messages, "users.ok: 1.5")

	assert.Equal(t, float64(1), testutil.ToFloat64(obs.TrackerMetricsTotal.WithLabelValues("gauges", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(obs.TrackerMetricsTotal.WithLabelValues("gauges", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(obs.TrackerMetricsTotal.WithLabelValues("counters", "error")))
}

func TestReporter_DeclarationOrderAcrossTrackers(t *testing.T) {
	rec := statsdtest.NewRecorder()
	logger := observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{})

	first := tracking.NewStaticValuesTracker("first", map[string]float64{"a": 1, "b": 2}, nil)
	second := tracking.NewStaticValuesTracker("second", map[string]float64{"c": 3}, map[string]float64{"d": 4})

	summary := NewReporter(rec, []tracking.Tracker{first, second}, logger, WithWorkers(8)).Run(context.Background())

	assert.Equal(t, 4, summary.Reported)
	var order []string
	for _, c := range rec.Calls() {
		order = append(order, c.Stat)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)
}

func TestReporter_NoTrackers(t *testing.T) {
	rec := statsdtest.NewPipelineRecorder()
	logger := observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{})

	summary := NewReporter(rec, nil, logger).Run(context.Background())

	assert.Equal(t, Summary{}, summary)
	assert.Equal(t, 1, rec.Sends())
}
