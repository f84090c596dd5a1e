package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Operation metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec

	// Notification metrics
	NotificationsTotal   *prometheus.CounterVec
	NotificationFailures *prometheus.CounterVec
	PendingEvents        prometheus.Gauge
	ReplayedEvents       *prometheus.CounterVec

	// Retention metrics
	RetentionRemoved *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		OperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeline_operations_total",
				Help: "Total number of record operations processed",
			},
			[]string{"operation", "record_type"},
		),

		OperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "timeline_operation_duration_seconds",
				Help:    "Duration of record operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "record_type"},
		),

		OperationErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeline_operation_errors_total",
				Help: "Total number of record operation errors",
			},
			[]string{"operation", "error_type"},
		),

		NotificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeline_notifications_total",
				Help: "Total number of change notifications appended",
			},
			[]string{"kind"},
		),

		NotificationFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeline_notification_failures_total",
				Help: "Total number of failed change notification appends",
			},
			[]string{"kind"},
		),

		PendingEvents: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "timeline_pending_events",
				Help: "Current number of change events queued for redelivery",
			},
		),

		ReplayedEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeline_replayed_events_total",
				Help: "Total number of redelivered change events",
			},
			[]string{"status"},
		),

		RetentionRemoved: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeline_retention_removed_total",
				Help: "Total number of records removed by retention sweeps",
			},
			[]string{"scope"},
		),
	}
}

// RecordOperation records a completed operation. Nil-safe so tests can run
// without a registry.
func (m *Metrics) RecordOperation(operation, recordType string, duration float64) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, recordType).Inc()
	m.OperationDuration.WithLabelValues(operation, recordType).Observe(duration)
}

// RecordError records an operation error
func (m *Metrics) RecordError(operation, errorType string) {
	if m == nil {
		return
	}
	m.OperationErrors.WithLabelValues(operation, errorType).Inc()
}

// RecordNotification records a successful notification append
func (m *Metrics) RecordNotification(kind string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(kind).Inc()
}

// RecordNotificationFailure records a failed notification append
func (m *Metrics) RecordNotificationFailure(kind string) {
	if m == nil {
		return
	}
	m.NotificationFailures.WithLabelValues(kind).Inc()
}

// UpdatePendingEvents updates the redelivery queue depth
func (m *Metrics) UpdatePendingEvents(count int64) {
	if m == nil {
		return
	}
	m.PendingEvents.Set(float64(count))
}

// RecordReplay records a redelivery attempt outcome
func (m *Metrics) RecordReplay(status string) {
	if m == nil {
		return
	}
	m.ReplayedEvents.WithLabelValues(status).Inc()
}

// RecordRetention records records removed by a retention sweep
func (m *Metrics) RecordRetention(scope string, removed int64) {
	if m == nil {
		return
	}
	m.RetentionRemoved.WithLabelValues(scope).Add(float64(removed))
}
