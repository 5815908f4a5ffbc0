package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for opens_total. Kept to a fixed set to bound cardinality.
const (
	OutcomeOK        = "ok"
	OutcomeDisabled  = "disabled"
	OutcomeResolve   = "resolve_error"
	OutcomeConnect   = "connect_error"
	OutcomeProtocol  = "protocol_error"
	OutcomeAuth      = "auth_rejected"
	OutcomeRejected  = "rejected"
	OutcomeHandshake = "handshake_error"
	OutcomeCanceled  = "canceled"
)

// Stage labels for stage_duration_seconds.
const (
	StageTunnel    = "tunnel"
	StageHandshake = "handshake"
)

// TransportMetrics tracks metrics for proxied connection handling.
type TransportMetrics struct {
	opensTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	openHandles   prometheus.Gauge
	bytesTotal    *prometheus.CounterVec
}

// NewTransportMetrics creates and registers transport metrics with the
// provided registry.
func NewTransportMetrics(namespace string, registry *prometheus.Registry) *TransportMetrics {
	tm := &TransportMetrics{
		opensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "transport",
				Name:      "opens_total",
				Help:      "Total number of connection open attempts",
			},
			[]string{"kind", "outcome"},
		),

		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "transport",
				Name:      "stage_duration_seconds",
				Help:      "Duration of connection establishment stages",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),

		openHandles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "transport",
				Name:      "open_handles",
				Help:      "Number of currently open connection handles",
			},
		),

		bytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "transport",
				Name:      "bytes_total",
				Help:      "Post-handshake payload bytes by direction",
			},
			[]string{"direction"},
		),
	}

	registry.MustRegister(
		tm.opensTotal,
		tm.stageDuration,
		tm.openHandles,
		tm.bytesTotal,
	)

	return tm
}

// RecordOpen records one open attempt and its outcome.
func (m *TransportMetrics) RecordOpen(kind, outcome string) {
	m.opensTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordStage records the duration of an establishment stage.
func (m *TransportMetrics) RecordStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// HandleOpened increments the open-handle gauge.
func (m *TransportMetrics) HandleOpened() {
	m.openHandles.Inc()
}

// HandleClosed decrements the open-handle gauge.
func (m *TransportMetrics) HandleClosed() {
	m.openHandles.Dec()
}

// RecordBytes adds post-handshake payload bytes in the given direction
// ("tx" or "rx").
func (m *TransportMetrics) RecordBytes(direction string, n int) {
	if n > 0 {
		m.bytesTotal.WithLabelValues(direction).Add(float64(n))
	}
}
