// Package observability wires application metrics into a single registry.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sevnet/sevnet-go/internal/observability/metrics"
)

// Metrics holds all application metrics backed by one Prometheus registry.
type Metrics struct {
	SevNet   *metrics.SevNetMetrics
	registry *prometheus.Registry
}

// NewMetrics creates a new metrics instance with a fresh registry including
// the standard Go runtime and process collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sevnetMetrics, err := metrics.NewSevNetMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create SevNet metrics: %w", err)
	}

	return &Metrics{
		SevNet:   sevnetMetrics,
		registry: registry,
	}, nil
}

// Registry returns the underlying Prometheus registry for exposition.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
