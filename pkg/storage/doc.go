// Package storage opens the connections pulse depends on: the SQL database
// holding user activity and the optional Redis instance backing the metric
// cache.
//
// OpenDB supports two drivers:
//
//   - "postgres" (github.com/lib/pq) for production deployments
//   - "sqlite3" (github.com/mattn/go-sqlite3) for local development and tests
//
// Both apply the pool settings from Config and ping the database before
// returning. NewRedisClient parses a redis:// URL, applies fixed timeouts and
// verifies connectivity.
package storage
