// Package metrics provides custom Prometheus metrics for the engine components.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ResolverMetrics contains all Prometheus metrics related to confidence
// resolution.
type ResolverMetrics struct {
	ResolveDuration prometheus.Histogram
	ResolveTotal    *prometheus.CounterVec
	RingDistance    prometheus.Histogram
	registry        *prometheus.Registry
}

// NewResolverMetrics creates a new instance of ResolverMetrics registered on
// the given registry.
func NewResolverMetrics(registry *prometheus.Registry) (*ResolverMetrics, error) {
	m := &ResolverMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register resolver metrics: %w", err)
	}
	return m, nil
}

func (m *ResolverMetrics) initMetrics() {
	m.ResolveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ebird_resolve_duration_seconds",
		Help:    "Time taken to resolve regional confidence for one detection",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	m.ResolveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ebird_resolve_total",
		Help: "Total confidence resolutions by outcome (hit, miss, error)",
	}, []string{"outcome"})

	m.RingDistance = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ebird_resolve_ring_distance",
		Help:    "Ring distance of matched cells in neighbor searches",
		Buckets: prometheus.LinearBuckets(0, 1, 8),
	})
}

// RecordResolve records one resolution outcome.
func (m *ResolverMetrics) RecordResolve(outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.ResolveTotal.WithLabelValues(outcome).Inc()
	m.ResolveDuration.Observe(durationSeconds)
}

// RecordRingDistance records the ring distance of a successful match.
func (m *ResolverMetrics) RecordRingDistance(distance int) {
	if m == nil {
		return
	}
	m.RingDistance.Observe(float64(distance))
}

// Collect implements the prometheus.Collector interface.
func (m *ResolverMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.ResolveDuration
	m.ResolveTotal.Collect(ch)
	ch <- m.RingDistance
}

// Describe implements the prometheus.Collector interface.
func (m *ResolverMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.ResolveDuration.Desc()
	m.ResolveTotal.Describe(ch)
	ch <- m.RingDistance.Desc()
}
