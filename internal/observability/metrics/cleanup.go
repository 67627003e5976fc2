package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CleanupMetrics contains all Prometheus metrics related to bulk cleanup runs.
type CleanupMetrics struct {
	RunsTotal          *prometheus.CounterVec
	DetectionsRemoved  prometheus.Counter
	AudioFilesDeleted  prometheus.Counter
	RunDuration        prometheus.Histogram
	registry           *prometheus.Registry
}

// NewCleanupMetrics creates a new instance of CleanupMetrics registered on
// the given registry.
func NewCleanupMetrics(registry *prometheus.Registry) (*CleanupMetrics, error) {
	m := &CleanupMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register cleanup metrics: %w", err)
	}
	return m, nil
}

func (m *CleanupMetrics) initMetrics() {
	m.RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ebird_cleanup_runs_total",
		Help: "Total cleanup runs by kind (preview, execute) and outcome",
	}, []string{"kind", "outcome"})

	m.DetectionsRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ebird_cleanup_detections_removed_total",
		Help: "Total detection records removed by cleanup execution",
	})

	m.AudioFilesDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ebird_cleanup_audio_files_deleted_total",
		Help: "Total audio clips deleted by cleanup execution",
	})

	m.RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ebird_cleanup_run_duration_seconds",
		Help:    "Duration of cleanup runs",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
}

// RecordRun records a completed cleanup run.
func (m *CleanupMetrics) RecordRun(kind, outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(kind, outcome).Inc()
	m.RunDuration.Observe(durationSeconds)
}

// RecordRemovals records the removal counts of one execute run.
func (m *CleanupMetrics) RecordRemovals(detections, audioFiles int) {
	if m == nil {
		return
	}
	m.DetectionsRemoved.Add(float64(detections))
	m.AudioFilesDeleted.Add(float64(audioFiles))
}

// Collect implements the prometheus.Collector interface.
func (m *CleanupMetrics) Collect(ch chan<- prometheus.Metric) {
	m.RunsTotal.Collect(ch)
	ch <- m.DetectionsRemoved
	ch <- m.AudioFilesDeleted
	ch <- m.RunDuration
}

// Describe implements the prometheus.Collector interface.
func (m *CleanupMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.RunsTotal.Describe(ch)
	ch <- m.DetectionsRemoved.Desc()
	ch <- m.AudioFilesDeleted.Desc()
	ch <- m.RunDuration.Desc()
}
