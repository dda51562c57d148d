// Package reporting pushes tracker values to StatsD.
//
// A Reporter walks every configured tracker, resolves its gauges and
// counters and emits them through a statsd.Statter. It is meant to be run
// periodically, either once per process (cmd/pulse-report) or on a cron
// schedule. A value that fails to resolve is logged as "NO VALUE" and
// skipped; the rest of the batch is still sent.
package reporting
