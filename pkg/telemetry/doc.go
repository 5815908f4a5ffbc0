// Package telemetry provides observability for the Skyhook transport.
//
// # Components
//
//   - logging: structured logging configuration over log/slog
//   - metrics: Prometheus metric collection for the transport
//   - health: health check registry and HTTP endpoints
//
// # Usage
//
//	// Configure the process-wide logger
//	logger, err := logging.Setup(&cfg.Telemetry.Logging)
//
//	// Record transport metrics
//	collector := metrics.NewCollector("skyhook", nil)
//	collector.Transport().RecordOpen("socks5", metrics.OutcomeOK)
//
//	// Expose health and metrics endpoints
//	mux.Handle("/metrics", collector.Handler())
//	mux.HandleFunc("/health", checker.LivenessHandler())
package telemetry
