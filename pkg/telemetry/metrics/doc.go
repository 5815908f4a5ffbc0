// Package metrics provides Prometheus metrics for the proxied transport.
//
// A Collector owns a prometheus.Registry (injected or private) and the
// metric families recorded by the transport. Embedders mount Handler()
// wherever they expose scrape traffic.
//
// Exposed series:
//
//   - skyhook_transport_opens_total: open attempts by tunnel kind and outcome
//   - skyhook_transport_stage_duration_seconds: per-stage latency (tunnel, handshake)
//   - skyhook_transport_open_handles: currently open connection handles
//   - skyhook_transport_bytes_total: post-handshake bytes by direction
package metrics
