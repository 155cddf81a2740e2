package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the workflow engine. Methods are
// nil-safe so tests can pass a nil collector.
type Metrics struct {
	TransitionsApplied  *prometheus.CounterVec
	TransitionsRejected *prometheus.CounterVec
	VersionConflicts    *prometheus.CounterVec
	DocumentsVerified   prometheus.Counter
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		TransitionsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_transitions_applied_total",
			Help: "Status and onboarding-status transitions applied, by kind.",
		}, []string{"kind"}),
		TransitionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_transitions_rejected_total",
			Help: "Transitions rejected by the state machine, by kind and reason.",
		}, []string{"kind", "reason"}),
		VersionConflicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_version_conflicts_total",
			Help: "Optimistic-concurrency write conflicts observed, by operation.",
		}, []string{"operation"}),
		DocumentsVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_documents_verified_total",
			Help: "Documents flipped to verified.",
		}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_offer_notifications_sent_total",
			Help: "Offer notifications successfully dispatched.",
		}),
		NotificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_offer_notifications_failed_total",
			Help: "Offer notification dispatch attempts that failed.",
		}),
	}
}

func (m *Metrics) RecordTransitionApplied(kind string) {
	if m == nil {
		return
	}
	m.TransitionsApplied.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordTransitionRejected(kind, reason string) {
	if m == nil {
		return
	}
	m.TransitionsRejected.WithLabelValues(kind, reason).Inc()
}

func (m *Metrics) RecordVersionConflict(operation string) {
	if m == nil {
		return
	}
	m.VersionConflicts.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordDocumentVerified() {
	if m == nil {
		return
	}
	m.DocumentsVerified.Inc()
}

func (m *Metrics) RecordNotificationSent() {
	if m == nil {
		return
	}
	m.NotificationsSent.Inc()
}

func (m *Metrics) RecordNotificationFailed() {
	if m == nil {
		return
	}
	m.NotificationsFailed.Inc()
}
