// Package observability provides structured logging, Prometheus self-metrics,
// health checks and graceful shutdown for the pulse binaries.
//
// # Structured Logging
//
// Loggers write JSON through logrus:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("view", "view.home").Info("request timed")
//
// Request-scoped loggers travel in the context:
//
//	ctx = observability.WithLogger(ctx, logger)
//	observability.FromContext(ctx).WithError(err).Warn("metric flush failed")
//
// # Prometheus Metrics
//
// The StatsD metrics this service emits are for the host application. The
// Prometheus metrics here describe pulse itself: lines written, send errors,
// cache hit ratios and tracker resolution failures.
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	observability.RegisterMetricsEndpoint(healthMux, registry)
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient)
//	observability.RegisterHealthRoutes(healthMux, checker)
//
// # Related Packages
//
//   - pkg/config: log level and port configuration
//   - pkg/instrument: request timing middleware
package observability
