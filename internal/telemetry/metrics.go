// Package telemetry wires the governor's ambient observability: Prometheus
// metrics and an optional OpenTelemetry trace span per decision. Grounded
// on the teacher's adapter/inbound/http/metrics.go promauto pattern.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus instrument the governor emits. Pass to
// Governor.New so each decision can be observed without a global registry.
type Metrics struct {
	DecisionsTotal     *prometheus.CounterVec
	DecisionDuration   *prometheus.HistogramVec
	ActiveRuns         prometheus.Gauge
	BundlesCreated     prometheus.Counter
	AuditLogEntries    *prometheus.CounterVec
	StoreEvictions     *prometheus.CounterVec
}

// NewMetrics creates and registers every governor metric with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		DecisionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "workspace_governor",
				Name:      "decisions_total",
				Help:      "Total ValidateAction decisions by risk tier and verdict",
			},
			[]string{"risk", "decision"},
		),
		DecisionDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "workspace_governor",
				Name:      "decision_duration_seconds",
				Help:      "Time spent inside ValidateAction",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"risk"},
		),
		ActiveRuns: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "workspace_governor",
				Name:      "active_runs",
				Help:      "Number of runs currently in the active state",
			},
		),
		BundlesCreated: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "workspace_governor",
				Name:      "bundles_created_total",
				Help:      "Total change bundles created",
			},
		),
		AuditLogEntries: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "workspace_governor",
				Name:      "audit_log_entries_total",
				Help:      "Total audit log entries written, by tool",
			},
			[]string{"tool"},
		),
		StoreEvictions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "workspace_governor",
				Name:      "store_evictions_total",
				Help:      "Bounded store entries evicted, by store and reason",
			},
			[]string{"store", "reason"},
		),
	}
}

// ObserveDecision records a completed ValidateAction outcome.
func (m *Metrics) ObserveDecision(risk, decision string) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(risk, decision).Inc()
}

// ObserveDecisionDuration records how long ValidateAction took for risk.
func (m *Metrics) ObserveDecisionDuration(risk string, seconds float64) {
	if m == nil {
		return
	}
	m.DecisionDuration.WithLabelValues(risk).Observe(seconds)
}

// ObserveAudit records that an audit entry was written for tool.
func (m *Metrics) ObserveAudit(tool string) {
	if m == nil {
		return
	}
	m.AuditLogEntries.WithLabelValues(tool).Inc()
}

// ObserveEviction records a bounded store evicting an entry.
func (m *Metrics) ObserveEviction(store, reason string) {
	if m == nil {
		return
	}
	m.StoreEvictions.WithLabelValues(store, reason).Inc()
}
