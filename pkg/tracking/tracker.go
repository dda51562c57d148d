package tracking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownTracker is returned when a configured tracker id has no factory
var ErrUnknownTracker = errors.New("unknown tracker")

// Metric maps a value source to the name it is reported under
type Metric struct {
	Name   string
	Source Source
}

// Tracker declares the gauges and counters a reporting run emits.
// Metrics are reported in declaration order.
type Tracker interface {
	ID() string
	Gauges() []Metric
	Counters() []Metric
}

// StaticTracker is a Tracker with a fixed metric list
type StaticTracker struct {
	id       string
	gauges   []Metric
	counters []Metric
}

// NewStaticTracker creates a tracker from explicit metric lists
func NewStaticTracker(id string, gauges, counters []Metric) *StaticTracker {
	return &StaticTracker{id: id, gauges: gauges, counters: counters}
}

// NewStaticValuesTracker creates a tracker reporting constant values.
// Names are reported in lexical order.
func NewStaticValuesTracker(id string, gauges, counters map[string]float64) *StaticTracker {
	return NewStaticTracker(id, staticMetrics(gauges), staticMetrics(counters))
}

func staticMetrics(values map[string]float64) []Metric {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	metrics := make([]Metric, 0, len(names))
	for _, name := range names {
		metrics = append(metrics, Metric{Name: name, Source: Static(values[name])})
	}
	return metrics
}

func (t *StaticTracker) ID() string         { return t.id }
func (t *StaticTracker) Gauges() []Metric   { return t.gauges }
func (t *StaticTracker) Counters() []Metric { return t.counters }

// Factory builds a tracker
type Factory func() (Tracker, error)

// Registry maps tracker ids to factories
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for id
func (r *Registry) Register(id string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = factory
}

// RegisterTracker registers an already built tracker under its own id
func (r *Registry) RegisterTracker(t Tracker) {
	r.Register(t.ID(), func() (Tracker, error) { return t, nil })
}

// IDs returns the registered ids in lexical order
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve instantiates the trackers named by ids, in order
func (r *Registry) Resolve(ids []string) ([]Tracker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trackers := make([]Tracker, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		factory, ok := r.factories[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTracker, id)
		}
		t, err := factory()
		if err != nil {
			return nil, fmt.Errorf("failed to build tracker %s: %w", id, err)
		}
		trackers = append(trackers, t)
	}
	return trackers, nil
}
