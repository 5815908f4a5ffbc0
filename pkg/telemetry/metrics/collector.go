package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector manages metric registration and provides a unified interface for
// recording transport metrics.
type Collector struct {
	registry  *prometheus.Registry
	transport *TransportMetrics
}

// NewCollector creates a new metrics collector against the given registry.
// If registry is nil, a private registry is created.
func NewCollector(namespace string, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if namespace == "" {
		namespace = "skyhook"
	}
	return &Collector{
		registry:  registry,
		transport: NewTransportMetrics(namespace, registry),
	}
}

// Transport returns the transport metric family.
func (c *Collector) Transport() *TransportMetrics {
	return c.transport
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
