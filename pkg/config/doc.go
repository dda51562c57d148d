// Package config provides application configuration management from
// environment variables and an optional YAML file.
//
// # Overview
//
// Values start from defaults, are overlaid by the YAML file named in
// PULSE_CONFIG_FILE, then by environment variables.
//
// # Configuration Structure
//
// StatsD settings:
//
//	PULSE_STATSD_HOST="localhost"
//	PULSE_STATSD_PORT="8125"
//	PULSE_STATSD_PREFIX=""
//	PULSE_STATSD_MAX_PACKET="512"
//
// Instrumentation settings:
//
//	PULSE_TIME_RESPONSES="true"
//	PULSE_TIMING_SAMPLE_RATE="1"
//	PULSE_TRACK_USER_ACTIVITY="true"
//	PULSE_REPORT_RENDER_TIMING="false"
//
// Storage and cache settings:
//
//	PULSE_DB_DRIVER="postgres"  # postgres, sqlite3
//	PULSE_DB_URL="postgres://localhost/pulse?sslmode=disable"
//	PULSE_REDIS_URL=""          # empty keeps the metric cache in memory
//	PULSE_CACHE_TTL="5m"
//	PULSE_TRACKERS="user_accounts"
//
// Server settings:
//
//	PULSE_HOST="0.0.0.0"
//	PULSE_PORT="8080"
//	PULSE_HEALTH_PORT="9090"
//	PULSE_LOG_LEVEL="info"  # debug, info, warn, error
//
// The YAML file uses the same structure, and may also declare trackers with
// fixed values:
//
//	tracking:
//	  trackers: [user_accounts, inventory]
//	  static:
//	    - id: inventory
//	      gauges:
//	        items_in_stock: 12
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
package config
