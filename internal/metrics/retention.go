// Package metrics exposes Prometheus metrics for retention runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RetentionMetrics holds counters updated by the retention enforcer.
// A nil *RetentionMetrics is valid and records nothing.
type RetentionMetrics struct {
	// FilesDeleted counts segment files removed, by namespace.
	FilesDeleted *prometheus.CounterVec

	// FilesFailed counts segment files that could not be removed, by namespace.
	FilesFailed *prometheus.CounterVec

	// BytesReclaimed sums the on-disk size of removed files, by namespace.
	BytesReclaimed *prometheus.CounterVec

	// NamespacesSkipped counts namespaces left untouched because their
	// policy was missing or invalid.
	NamespacesSkipped prometheus.Counter

	// RunsTotal counts finished runs by outcome: completed, aborted or
	// canceled.
	RunsTotal *prometheus.CounterVec

	// LastRun is the unix time the last run finished, whatever its outcome.
	LastRun prometheus.Gauge

	// RunDuration observes how long each run took.
	RunDuration prometheus.Histogram
}

// NewRetentionMetrics creates retention metrics registered with reg.
// Pass a fresh prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewRetentionMetrics(reg prometheus.Registerer) *RetentionMetrics {
	m := &RetentionMetrics{
		FilesDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tsidx",
				Subsystem: "retention",
				Name:      "files_deleted_total",
				Help:      "Segment files deleted by the retention enforcer.",
			},
			[]string{"namespace"},
		),
		FilesFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tsidx",
				Subsystem: "retention",
				Name:      "files_failed_total",
				Help:      "Segment files the retention enforcer failed to delete.",
			},
			[]string{"namespace"},
		),
		BytesReclaimed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tsidx",
				Subsystem: "retention",
				Name:      "bytes_reclaimed_total",
				Help:      "On-disk bytes of segment files deleted by the retention enforcer.",
			},
			[]string{"namespace"},
		),
		NamespacesSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tsidx",
				Subsystem: "retention",
				Name:      "namespaces_skipped_total",
				Help:      "Namespaces skipped because their retention policy was missing or invalid.",
			},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tsidx",
				Subsystem: "retention",
				Name:      "runs_total",
				Help:      "Retention runs by outcome.",
			},
			[]string{"outcome"},
		),
		LastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "tsidx",
				Subsystem: "retention",
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last retention run finished.",
			},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "tsidx",
				Subsystem: "retention",
				Name:      "run_duration_seconds",
				Help:      "Duration of retention runs.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),
	}

	reg.MustRegister(
		m.FilesDeleted, m.FilesFailed, m.BytesReclaimed, m.NamespacesSkipped, m.RunsTotal, m.LastRun, m.RunDuration,
	)
	return m
}

// RecordDeleted counts one removed file of the given size.
func (m *RetentionMetrics) RecordDeleted(namespace string, size int64) {
	if m == nil {
		return
	}
	m.FilesDeleted.WithLabelValues(namespace).Inc()
	if size > 0 {
		m.BytesReclaimed.WithLabelValues(namespace).Add(float64(size))
	}
}

// RecordFailed counts one file that could not be removed.
func (m *RetentionMetrics) RecordFailed(namespace string) {
	if m == nil {
		return
	}
	m.FilesFailed.WithLabelValues(namespace).Inc()
}

// RecordSkipped counts one skipped namespace.
func (m *RetentionMetrics) RecordSkipped() {
	if m == nil {
		return
	}
	m.NamespacesSkipped.Inc()
}

// Run outcomes recorded by RecordRun.
const (
	OutcomeCompleted = "completed"
	OutcomeAborted   = "aborted"
	OutcomeCanceled  = "canceled"
)

// RecordRun marks the end of a run that started at start.
func (m *RetentionMetrics) RecordRun(start, end time.Time, outcome string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(end.Sub(start).Seconds())
	m.LastRun.Set(float64(end.Unix()))
}

// WriteTextfile writes every metric gathered by g to path in the text
// exposition format, for the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
