// Package observability provides metrics and monitoring capabilities for the
// regional confidence engine.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/birdstation/ebird-engine/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Resolver *metrics.ResolverMetrics
	Gate     *metrics.GateMetrics
	Cleanup  *metrics.CleanupMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors. It returns an error if any metric collector fails to register.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	resolverMetrics, err := metrics.NewResolverMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver metrics: %w", err)
	}

	gateMetrics, err := metrics.NewGateMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate metrics: %w", err)
	}

	cleanupMetrics, err := metrics.NewCleanupMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create cleanup metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Resolver: resolverMetrics,
		Gate:     gateMetrics,
		Cleanup:  cleanupMetrics,
	}, nil
}

// Handler returns an HTTP handler exposing the registry in Prometheus format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
