// Package observability provides logging, metrics, health and shutdown
// helpers shared by the CLI, the watch loop and the preview server.
//
// # Logging
//
// NewLogger builds the process-wide *logrus.Logger from the configured level
// and format. Components take that logger as a dependency and fall back to
// logrus.New() when handed nil.
//
// # Metrics
//
// Metrics registers Prometheus collectors on a caller-owned registry and
// implements the observer interfaces of the converter, the extraction memo
// and the watcher:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	converter := docs.NewConverter(docs.ConverterConfig{Observer: metrics})
//
// # Health and Shutdown
//
// HealthChecker turns the outcome of the latest build into liveness and
// readiness probes. ShutdownManager stops the preview server and runs
// registered cleanup functions once the root context is cancelled.
package observability
