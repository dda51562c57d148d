// Package statsdtest provides an in-memory statsd.Statter for tests.
package statsdtest

import (
	"sync"
	"time"

	"github.com/platinummonkey/pulse/pkg/statsd"
)

// Call is one recorded metric
type Call struct {
	Kind  string // incr, decr, gauge or timing
	Stat  string
	Value float64
	Rate  float64
	Delta bool
}

// Recorder records every call it receives. Calls are buffered until Send
// when Buffered is set, mirroring a statsd.Pipeline.
type Recorder struct {
	Buffered bool
	// Err is returned from every emitting call when set
	Err error

	parent  *Recorder
	mu      sync.Mutex
	pending []Call
	sent    []Call
	sends   int
}

// NewRecorder returns a recorder that sends immediately
func NewRecorder() *Recorder {
	return &Recorder{}
}

// NewPipelineRecorder returns a recorder that buffers until Send
func NewPipelineRecorder() *Recorder {
	return &Recorder{Buffered: true}
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if r.Buffered {
		r.pending = append(r.pending, c)
	} else {
		r.sent = append(r.sent, c)
	}
	return nil
}

func (r *Recorder) Incr(stat string, count int64, rate float64) error {
	return r.record(Call{Kind: "incr", Stat: stat, Value: float64(count), Rate: rate})
}

func (r *Recorder) Decr(stat string, count int64, rate float64) error {
	return r.record(Call{Kind: "decr", Stat: stat, Value: float64(count), Rate: rate})
}

func (r *Recorder) Gauge(stat string, value float64, delta bool) error {
	return r.record(Call{Kind: "gauge", Stat: stat, Value: value, Rate: 1, Delta: delta})
}

func (r *Recorder) Timing(stat string, ms int64, rate float64) error {
	return r.record(Call{Kind: "timing", Stat: stat, Value: float64(ms), Rate: rate})
}

func (r *Recorder) TimingDuration(stat string, d time.Duration, rate float64) error {
	return r.Timing(stat, d.Milliseconds(), rate)
}

// NewBatch returns a buffering child recorder whose Send delivers into r
func (r *Recorder) NewBatch() statsd.Batcher {
	return &Recorder{Buffered: true, Err: r.Err, parent: r}
}

// Send moves buffered calls to the sent list
func (r *Recorder) Send() error {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	r.sends++
	if r.parent == nil {
		r.sent = append(r.sent, pending...)
	}
	r.mu.Unlock()

	if r.parent != nil {
		r.parent.mu.Lock()
		r.parent.sent = append(r.parent.sent, pending...)
		r.parent.sends++
		r.parent.mu.Unlock()
	}
	return nil
}

// Calls returns every sent call
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.sent))
	copy(out, r.sent)
	return out
}

// Pending returns the calls not yet sent
func (r *Recorder) Pending() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.pending))
	copy(out, r.pending)
	return out
}

// Sends returns how many times Send was called
func (r *Recorder) Sends() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sends
}

// Stats returns the names of every sent call of kind, in order
func (r *Recorder) Stats(kind string) []string {
	var names []string
	for _, c := range r.Calls() {
		if c.Kind == kind {
			names = append(names, c.Stat)
		}
	}
	return names
}

// Find returns the first sent call for stat
func (r *Recorder) Find(stat string) (Call, bool) {
	for _, c := range r.Calls() {
		if c.Stat == stat {
			return c, true
		}
	}
	return Call{}, false
}
