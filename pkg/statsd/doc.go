// Package statsd implements a StatsD line-protocol client over UDP.
//
// # Overview
//
// Metrics are written as plaintext lines of the form
//
//	[prefix.]name:value|type[|@rate]
//
// where type is c (counter), g (gauge) or ms (timing). Sends are best effort:
// a lost datagram is never retried.
//
// # Usage Example
//
//	client, err := statsd.New(statsd.Config{Host: "localhost", Port: 8125, Prefix: "app"})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	client.Incr("users.login", 1, 1.0)
//
//	pipe := client.Pipeline()
//	pipe.Timing("view.home", 42, 1.0)
//	pipe.Incr("view.requests", 1, 1.0)
//	if err := pipe.Send(); err != nil {
//		logger.WithError(err).Warn("failed to flush metrics")
//	}
//
// Both Client and Pipeline satisfy Statter, so code that only emits metrics
// can accept either.
package statsd
