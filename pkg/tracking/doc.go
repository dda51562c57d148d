// Package tracking computes user activity aggregates and declares the
// trackers a reporting run pushes to StatsD.
//
// Metrics answers the aggregate queries (daily and monthly active users,
// new users, last-month, returning and churned users, and the ratios
// derived from them). Each result is cached under "metric_<name>" with its
// own TTL; ratios return 0.0 instead of dividing by zero.
//
// A Tracker is a list of gauges and counters, each a Source mapped to its
// StatsD name. Registry resolves the tracker ids listed in configuration.
package tracking
