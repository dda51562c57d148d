package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/pulse/pkg/activity"
	"github.com/platinummonkey/pulse/pkg/instrument"
	"github.com/platinummonkey/pulse/pkg/observability"
	"github.com/platinummonkey/pulse/pkg/statsd"
	"github.com/platinummonkey/pulse/pkg/storage"
	"github.com/platinummonkey/pulse/pkg/tracking"
)

// FileEnv names the optional YAML file read before the environment
const FileEnv = "PULSE_CONFIG_FILE"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// StatsD client configuration
	Statsd statsd.Config `yaml:"statsd"`

	// Request instrumentation
	Instrument instrument.Config `yaml:"instrument"`

	// Database and Redis configuration
	Storage storage.Config `yaml:"storage"`

	// Tracker and metric cache configuration
	Tracking TrackingConfig `yaml:"tracking"`

	// Scheduled jobs
	Jobs JobsConfig `yaml:"jobs"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`

	// CORSOrigins allowed to call the pixel endpoints; empty disables CORS
	CORSOrigins []string `yaml:"cors_origins"`

	// UserHeader carries the authenticated user id set by a fronting proxy
	UserHeader string `yaml:"user_header"`

	// RateLimit is the per-client requests per minute; 0 disables limiting
	RateLimit      int `yaml:"rate_limit"`
	RateLimitBurst int `yaml:"rate_limit_burst"`
}

// TrackingConfig selects the reported trackers and the metric cache
type TrackingConfig struct {
	Trackers     []string        `yaml:"trackers"`
	Static       []StaticTracker `yaml:"static"`
	UsersTable   string          `yaml:"users_table"`
	JoinedColumn string          `yaml:"joined_column"`
	CacheTTL     time.Duration   `yaml:"cache_ttl"`
	CacheSize    int             `yaml:"cache_size"`
}

// StaticTracker is a tracker with fixed values declared in the config file
type StaticTracker struct {
	ID       string             `yaml:"id"`
	Gauges   map[string]float64 `yaml:"gauges"`
	Counters map[string]float64 `yaml:"counters"`
}

// JobsConfig holds the report and cleanup job settings
type JobsConfig struct {
	// ReportSchedule is a cron expression; empty runs the report once
	ReportSchedule string `yaml:"report_schedule"`
	// CleanupSchedule is a cron expression; empty runs the cleanup once
	CleanupSchedule string `yaml:"cleanup_schedule"`
	// CleanupDays is how many days of activity records to keep
	CleanupDays int `yaml:"cleanup_days"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel     observability.LogLevel `yaml:"-"`
	LogLevelName string                 `yaml:"log_level"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Statsd:     statsd.DefaultConfig(),
		Instrument: instrument.DefaultConfig(),
		Storage:    storage.DefaultConfig(),
		Tracking: TrackingConfig{
			Trackers:     []string{tracking.UserAccountsID},
			UsersTable:   "users",
			JoinedColumn: "date_joined",
			CacheTTL:     tracking.DefaultTTL,
			CacheSize:    1024,
		},
		Jobs: JobsConfig{
			CleanupDays: 90,
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.InfoLevel,
			LogLevelName:   "info",
			MetricsEnabled: true,
		},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file named by
// PULSE_CONFIG_FILE and the environment, in that order of precedence
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.loadServerConfig()
	cfg.loadStatsdConfig()
	cfg.loadInstrumentConfig()
	cfg.loadStorageConfig()
	cfg.loadTrackingConfig()
	cfg.loadJobsConfig()
	cfg.loadObservabilityConfig()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the YAML file at path
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadServerConfig loads server configuration from environment
func (c *Config) loadServerConfig() {
	s := &c.Server
	s.Host = getEnv("PULSE_HOST", s.Host)
	s.Port = getEnv("PULSE_PORT", s.Port)
	s.ReadTimeout = getEnvDuration("PULSE_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvDuration("PULSE_WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = getEnvDuration("PULSE_IDLE_TIMEOUT", s.IdleTimeout)
	s.ShutdownTimeout = getEnvDuration("PULSE_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.HealthPort = getEnv("PULSE_HEALTH_PORT", s.HealthPort)
	s.CORSOrigins = getEnvList("PULSE_CORS_ORIGINS", s.CORSOrigins)
	s.UserHeader = getEnv("PULSE_USER_HEADER", s.UserHeader)
	s.RateLimit = getEnvInt("PULSE_RATE_LIMIT", s.RateLimit)
	s.RateLimitBurst = getEnvInt("PULSE_RATE_LIMIT_BURST", s.RateLimitBurst)
}

// loadStatsdConfig loads StatsD configuration from environment
func (c *Config) loadStatsdConfig() {
	s := &c.Statsd
	s.Host = getEnv("PULSE_STATSD_HOST", s.Host)
	s.Port = getEnvInt("PULSE_STATSD_PORT", s.Port)
	s.Prefix = getEnv("PULSE_STATSD_PREFIX", s.Prefix)
	s.MaxPacketSize = getEnvInt("PULSE_STATSD_MAX_PACKET", s.MaxPacketSize)
}

// loadInstrumentConfig loads middleware settings from environment
func (c *Config) loadInstrumentConfig() {
	i := &c.Instrument
	i.TimeResponses = getEnvBool("PULSE_TIME_RESPONSES", i.TimeResponses)
	i.TimingSampleRate = getEnvFloat("PULSE_TIMING_SAMPLE_RATE", i.TimingSampleRate)
	i.TrackUserActivity = getEnvBool("PULSE_TRACK_USER_ACTIVITY", i.TrackUserActivity)
	i.ReportRenderTiming = getEnvBool("PULSE_REPORT_RENDER_TIMING", i.ReportRenderTiming)
	i.IncludeMethod = getEnvBool("PULSE_INCLUDE_METHOD", i.IncludeMethod)
}

// loadStorageConfig loads storage configuration from environment
func (c *Config) loadStorageConfig() {
	s := &c.Storage
	s.Driver = getEnv("PULSE_DB_DRIVER", s.Driver)
	s.URL = getEnv("PULSE_DB_URL", s.URL)
	if maxConns := getEnvInt("PULSE_DB_MAX_CONNS", 0); maxConns > 0 {
		s.MaxConns = maxConns
	}
	if minConns := getEnvInt("PULSE_DB_MIN_CONNS", 0); minConns > 0 {
		s.MinConns = minConns
	}
	if timeout := getEnvDuration("PULSE_DB_TIMEOUT", 0); timeout > 0 {
		s.Timeout = timeout
	}

	s.RedisURL = getEnv("PULSE_REDIS_URL", s.RedisURL)
	if redisMaxRetries := getEnvInt("PULSE_REDIS_MAX_RETRIES", 0); redisMaxRetries > 0 {
		s.RedisMaxRetries = redisMaxRetries
	}
	if redisPoolSize := getEnvInt("PULSE_REDIS_POOL_SIZE", 0); redisPoolSize > 0 {
		s.RedisPoolSize = redisPoolSize
	}
}

// loadTrackingConfig loads tracker and cache settings from environment
func (c *Config) loadTrackingConfig() {
	t := &c.Tracking
	t.Trackers = getEnvList("PULSE_TRACKERS", t.Trackers)
	t.UsersTable = getEnv("PULSE_USERS_TABLE", t.UsersTable)
	t.JoinedColumn = getEnv("PULSE_USERS_JOINED_COLUMN", t.JoinedColumn)
	t.CacheTTL = getEnvDuration("PULSE_CACHE_TTL", t.CacheTTL)
	t.CacheSize = getEnvInt("PULSE_CACHE_SIZE", t.CacheSize)
}

// loadJobsConfig loads job settings from environment
func (c *Config) loadJobsConfig() {
	j := &c.Jobs
	j.ReportSchedule = getEnv("PULSE_REPORT_SCHEDULE", j.ReportSchedule)
	j.CleanupSchedule = getEnv("PULSE_CLEANUP_SCHEDULE", j.CleanupSchedule)
	j.CleanupDays = getEnvInt("PULSE_CLEANUP_DAYS", j.CleanupDays)
}

// loadObservabilityConfig loads observability configuration from environment
func (c *Config) loadObservabilityConfig() {
	o := &c.Observability
	o.LogLevelName = getEnv("PULSE_LOG_LEVEL", o.LogLevelName)
	o.LogLevel = observability.ParseLogLevel(o.LogLevelName)
	o.MetricsEnabled = getEnvBool("PULSE_METRICS_ENABLED", o.MetricsEnabled)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Server.RateLimit < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit must be non-negative")
	}

	// Validate statsd config
	if c.Statsd.Host == "" {
		return fmt.Errorf("statsd host is required")
	}
	if c.Statsd.Port <= 0 || c.Statsd.Port > 65535 {
		return fmt.Errorf("invalid statsd port: %d", c.Statsd.Port)
	}
	if c.Statsd.MaxPacketSize <= 0 {
		return fmt.Errorf("statsd max packet size must be positive")
	}
	if r := c.Instrument.TimingSampleRate; r <= 0 || r > 1 {
		return fmt.Errorf("timing sample rate must be in (0, 1], got %v", r)
	}

	// Validate storage config
	switch c.Storage.Driver {
	case activity.DriverPostgres, activity.DriverSQLite:
	default:
		return fmt.Errorf("invalid database driver: %s (must be %s or %s)",
			c.Storage.Driver, activity.DriverPostgres, activity.DriverSQLite)
	}
	if c.Storage.URL == "" {
		return fmt.Errorf("database URL is required")
	}

	// Validate tracking config
	if c.Tracking.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	if c.Tracking.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive")
	}
	seen := map[string]bool{}
	for _, st := range c.Tracking.Static {
		if st.ID == "" {
			return fmt.Errorf("static tracker id is required")
		}
		if st.ID == tracking.UserAccountsID || seen[st.ID] {
			return fmt.Errorf("duplicate tracker id: %s", st.ID)
		}
		seen[st.ID] = true
	}

	if c.Jobs.CleanupDays <= 0 {
		return fmt.Errorf("cleanup days must be positive")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
