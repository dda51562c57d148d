package statsd

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"time"
	"unicode"

	cactus "github.com/cactus/go-statsd-client/v5/statsd"

	"github.com/platinummonkey/pulse/pkg/observability"
)

const (
	typeCounter = "c"
	typeGauge   = "g"
	typeTiming  = "ms"
)

// ErrClosed is returned when sending through a closed client
var ErrClosed = errors.New("statsd client closed")

// ErrInvalidName is returned for stat names that would break the line format
var ErrInvalidName = errors.New("invalid stat name")

// ValidName reports whether stat can be written as a metric name. Names
// must be non-empty and free of the protocol separators and whitespace.
func ValidName(stat string) bool {
	if stat == "" {
		return false
	}
	for _, r := range stat {
		if r == ':' || r == '|' || r == '@' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// Statter is the emission surface shared by Client and Pipeline
type Statter interface {
	Incr(stat string, count int64, rate float64) error
	Decr(stat string, count int64, rate float64) error
	Gauge(stat string, value float64, delta bool) error
	Timing(stat string, ms int64, rate float64) error
	TimingDuration(stat string, d time.Duration, rate float64) error
}

// Batcher is a Statter that buffers lines until Send
type Batcher interface {
	Statter
	Send() error
}

// Config holds StatsD client settings
type Config struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	Prefix        string `yaml:"prefix"`
	MaxPacketSize int    `yaml:"max_packet_size"`
	BatchLen      int    `yaml:"batch_len"`
}

// DefaultConfig returns the default client configuration
func DefaultConfig() Config {
	return Config{
		Host:          "localhost",
		Port:          8125,
		MaxPacketSize: 512,
		BatchLen:      100,
	}
}

// Option configures a Client
type Option func(*Client)

// WithMetrics records sent lines and send failures
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithSampler overrides the random source used for sample rates.
// The function must return values in [0, 1).
func WithSampler(fn func() float64) Option {
	return func(c *Client) {
		c.sampler = fn
	}
}

// WithSender replaces the UDP transport, e.g. with a recording sender in
// tests
func WithSender(sender cactus.Sender) Option {
	return func(c *Client) {
		c.sender = sender
	}
}

// Client formats metric lines and hands packed datagrams to a
// go-statsd-client Sender. It is safe for concurrent use; every packed
// datagram is one Send.
type Client struct {
	sender    cactus.Sender
	prefix    string
	maxPacket int
	batchLen  int
	sampler   func() float64
	metrics   *observability.Metrics
}

// New dials the configured StatsD daemon
func New(cfg Config, opts ...Option) (*Client, error) {
	defaults := DefaultConfig()
	if cfg.Host == "" {
		cfg.Host = defaults.Host
	}
	if cfg.Port == 0 {
		cfg.Port = defaults.Port
	}
	if cfg.MaxPacketSize <= 0 {
		cfg.MaxPacketSize = defaults.MaxPacketSize
	}
	if cfg.BatchLen <= 0 {
		cfg.BatchLen = defaults.BatchLen
	}

	c := &Client{
		prefix:    strings.TrimSuffix(cfg.Prefix, "."),
		maxPacket: cfg.MaxPacketSize,
		batchLen:  cfg.BatchLen,
		sampler:   rand.Float64,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.sender == nil {
		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		sender, err := cactus.NewSimpleSender(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to dial statsd at %s: %w", addr, err)
		}
		c.sender = sender
	}

	return c, nil
}

// Pipeline returns a buffer that sends its lines on Send
func (c *Client) Pipeline() *Pipeline {
	return &Pipeline{client: c}
}

// NewBatch returns a new Pipeline as a Batcher
func (c *Client) NewBatch() Batcher {
	return c.Pipeline()
}

// Close closes the sender's socket
func (c *Client) Close() error {
	return c.sender.Close()
}

// Incr increments a counter
func (c *Client) Incr(stat string, count int64, rate float64) error {
	lines, err := c.counter(stat, count, rate)
	if err != nil {
		return err
	}
	return c.send(lines)
}

// Decr decrements a counter
func (c *Client) Decr(stat string, count int64, rate float64) error {
	lines, err := c.counter(stat, -count, rate)
	if err != nil {
		return err
	}
	return c.send(lines)
}

// Gauge sets a gauge, or adjusts it when delta is true
func (c *Client) Gauge(stat string, value float64, delta bool) error {
	lines, err := c.gauge(stat, value, delta)
	if err != nil {
		return err
	}
	return c.send(lines)
}

// Timing records a timing in milliseconds
func (c *Client) Timing(stat string, ms int64, rate float64) error {
	lines, err := c.timing(stat, ms, rate)
	if err != nil {
		return err
	}
	return c.send(lines)
}

// TimingDuration records a duration as a timing in milliseconds
func (c *Client) TimingDuration(stat string, d time.Duration, rate float64) error {
	return c.Timing(stat, d.Milliseconds(), rate)
}

func checkName(stat string) error {
	if !ValidName(stat) {
		return fmt.Errorf("%w: %q", ErrInvalidName, stat)
	}
	return nil
}

func (c *Client) counter(stat string, count int64, rate float64) ([]string, error) {
	if err := checkName(stat); err != nil {
		return nil, err
	}
	if !c.sampled(rate) {
		return nil, nil
	}
	return []string{c.line(stat, strconv.FormatInt(count, 10), typeCounter, rate)}, nil
}

func (c *Client) timing(stat string, ms int64, rate float64) ([]string, error) {
	if err := checkName(stat); err != nil {
		return nil, err
	}
	if !c.sampled(rate) {
		return nil, nil
	}
	return []string{c.line(stat, strconv.FormatInt(ms, 10), typeTiming, rate)}, nil
}

func (c *Client) gauge(stat string, value float64, delta bool) ([]string, error) {
	if err := checkName(stat); err != nil {
		return nil, err
	}
	v := strconv.FormatFloat(value, 'f', -1, 64)
	if delta {
		if value >= 0 {
			v = "+" + v
		}
		return []string{c.line(stat, v, typeGauge, 1)}, nil
	}
	// A leading sign would be read as a delta, so negative values are
	// written as a reset to zero followed by the signed value.
	if value < 0 {
		return []string{
			c.line(stat, "0", typeGauge, 1),
			c.line(stat, v, typeGauge, 1),
		}, nil
	}
	return []string{c.line(stat, v, typeGauge, 1)}, nil
}

func (c *Client) sampled(rate float64) bool {
	if rate >= 1 {
		return true
	}
	return c.sampler() < rate
}

func (c *Client) line(stat, value, typ string, rate float64) string {
	var b strings.Builder
	if c.prefix != "" {
		b.WriteString(c.prefix)
		b.WriteByte('.')
	}
	b.WriteString(stat)
	b.WriteByte(':')
	b.WriteString(value)
	b.WriteByte('|')
	b.WriteString(typ)
	if rate < 1 {
		b.WriteString("|@")
		b.WriteString(strconv.FormatFloat(rate, 'f', -1, 64))
	}
	return b.String()
}

// send writes lines packed into as few datagrams as fit maxPacket
func (c *Client) send(lines []string) error {
	if len(lines) == 0 {
		return nil
	}

	var firstErr error
	for _, packet := range pack(lines, c.maxPacket) {
		if _, err := c.sender.Send([]byte(packet)); err != nil {
			if c.metrics != nil {
				c.metrics.StatsdSendErrorsTotal.Inc()
			}
			if errors.Is(err, net.ErrClosed) {
				err = ErrClosed
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("statsd write failed: %w", err)
			}
		}
	}
	if c.metrics != nil && firstErr == nil {
		c.metrics.StatsdLinesTotal.Add(float64(len(lines)))
	}
	return firstErr
}

// pack joins lines with newlines, starting a new datagram whenever the
// next line would push the current one past max bytes. A single line
// longer than max is sent on its own.
func pack(lines []string, max int) []string {
	var packets []string
	var b strings.Builder
	for _, l := range lines {
		if b.Len() > 0 && b.Len()+1+len(l) > max {
			packets = append(packets, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l)
	}
	if b.Len() > 0 {
		packets = append(packets, b.String())
	}
	return packets
}
