// Package metrics defines the Prometheus metrics of the attendance service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Storage metrics
	RecordsSavedTotal *prometheus.CounterVec
	CommitsTotal      *prometheus.CounterVec

	// Resolver metrics
	AutoAbsentSlotsTotal prometheus.Counter
	SummariesTotal       *prometheus.CounterVec

	// Export metrics
	ExportDurationSeconds *prometheus.HistogramVec

	// Snapshot metrics
	SnapshotUploadsTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		RecordsSavedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attendance_records_saved_total",
				Help: "Total number of attendance records saved by stage and status",
			},
			[]string{"stage", "status"}, // stage: draft, final
		),

		CommitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attendance_commits_total",
				Help: "Total number of draft commits by result",
			},
			[]string{"result"}, // result: success, empty, error
		),

		AutoAbsentSlotsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "attendance_auto_absent_slots_total",
				Help: "Total number of slots resolved as recurring absences",
			},
		),

		SummariesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attendance_summaries_total",
				Help: "Total number of per-day summaries computed by stage",
			},
			[]string{"stage"},
		),

		ExportDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "attendance_export_duration_seconds",
				Help:    "Export duration in seconds by format",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"format"}, // format: csv, xlsx
		),

		SnapshotUploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attendance_snapshot_uploads_total",
				Help: "Total number of snapshot publications by target and result",
			},
			[]string{"target", "result"}, // target: local, r2
		),

		HTTPErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attendance_http_errors_total",
				Help: "Total HTTP errors by type and route",
			},
			[]string{"error_type", "route"}, // error_type: invalid_input, not_found, internal
		),
	}
}

// RecordRecordsSaved records count saved records of one stage and status.
func (m *Metrics) RecordRecordsSaved(stage, status string, count int) {
	m.RecordsSavedTotal.WithLabelValues(stage, status).Add(float64(count))
}

// RecordCommit records a commit outcome
func (m *Metrics) RecordCommit(result string) {
	m.CommitsTotal.WithLabelValues(result).Inc()
}

// RecordAutoAbsent records slots filled by recurring-absence rules
func (m *Metrics) RecordAutoAbsent(count int) {
	m.AutoAbsentSlotsTotal.Add(float64(count))
}

// RecordSummary records a computed summary
func (m *Metrics) RecordSummary(stage string) {
	m.SummariesTotal.WithLabelValues(stage).Inc()
}

// RecordExport records export duration
func (m *Metrics) RecordExport(format string, duration float64) {
	m.ExportDurationSeconds.WithLabelValues(format).Observe(duration)
}

// RecordSnapshot records a snapshot publication
func (m *Metrics) RecordSnapshot(target, result string) {
	m.SnapshotUploadsTotal.WithLabelValues(target, result).Inc()
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, route string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, route).Inc()
}
