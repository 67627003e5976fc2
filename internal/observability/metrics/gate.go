package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// GateMetrics contains all Prometheus metrics related to the detection
// filter gate.
type GateMetrics struct {
	DecisionsTotal *prometheus.CounterVec
	FailOpenTotal  prometheus.Counter
	registry       *prometheus.Registry
}

// NewGateMetrics creates a new instance of GateMetrics registered on the
// given registry.
func NewGateMetrics(registry *prometheus.Registry) (*GateMetrics, error) {
	m := &GateMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register gate metrics: %w", err)
	}
	return m, nil
}

func (m *GateMetrics) initMetrics() {
	m.DecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ebird_gate_decisions_total",
		Help: "Total filter gate decisions by status",
	}, []string{"status"})

	m.FailOpenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ebird_gate_fail_open_total",
		Help: "Total detections accepted without annotation because the regional lookup failed",
	})
}

// RecordDecision records one gate decision by status string.
func (m *GateMetrics) RecordDecision(status string) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(status).Inc()
}

// RecordFailOpen records one fail-open acceptance.
func (m *GateMetrics) RecordFailOpen() {
	if m == nil {
		return
	}
	m.FailOpenTotal.Inc()
}

// Collect implements the prometheus.Collector interface.
func (m *GateMetrics) Collect(ch chan<- prometheus.Metric) {
	m.DecisionsTotal.Collect(ch)
	ch <- m.FailOpenTotal
}

// Describe implements the prometheus.Collector interface.
func (m *GateMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.DecisionsTotal.Describe(ch)
	ch <- m.FailOpenTotal.Desc()
}
