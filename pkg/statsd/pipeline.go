package statsd

import (
	"sync"
	"time"
)

// Pipeline buffers metric lines and sends them together. It sends
// automatically once the client's batch length is reached. A Pipeline is
// meant to live for a single unit of work such as one request.
type Pipeline struct {
	client *Client
	mu     sync.Mutex
	lines  []string
}

// Incr buffers a counter increment
func (p *Pipeline) Incr(stat string, count int64, rate float64) error {
	return p.add(p.client.counter(stat, count, rate))
}

// Decr buffers a counter decrement
func (p *Pipeline) Decr(stat string, count int64, rate float64) error {
	return p.add(p.client.counter(stat, -count, rate))
}

// Gauge buffers a gauge update
func (p *Pipeline) Gauge(stat string, value float64, delta bool) error {
	return p.add(p.client.gauge(stat, value, delta))
}

// Timing buffers a timing in milliseconds
func (p *Pipeline) Timing(stat string, ms int64, rate float64) error {
	return p.add(p.client.timing(stat, ms, rate))
}

// TimingDuration buffers a duration as a timing in milliseconds
func (p *Pipeline) TimingDuration(stat string, d time.Duration, rate float64) error {
	return p.Timing(stat, d.Milliseconds(), rate)
}

// Len returns the number of buffered lines
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.lines)
}

// Send flushes all buffered lines
func (p *Pipeline) Send() error {
	p.mu.Lock()
	lines := p.lines
	p.lines = nil
	p.mu.Unlock()

	return p.client.send(lines)
}

func (p *Pipeline) add(lines []string, err error) error {
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	p.mu.Lock()
	p.lines = append(p.lines, lines...)
	full := len(p.lines) >= p.client.batchLen
	p.mu.Unlock()

	if full {
		return p.Send()
	}
	return nil
}
