// Package metrics provides observability for the escalation module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the escalation module's Prometheus metrics. All methods
// are nil-safe so tests can pass a nil collector.
type Metrics struct {
	// Decision outcomes by policy and level
	Outcomes *prometheus.CounterVec

	// Full evaluation latency including audit emission
	EvaluateLatency prometheus.Histogram

	// Escalation queue activity
	Escalations *prometheus.CounterVec
	Resolutions *prometheus.CounterVec
}

// New creates and registers all escalation metrics.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custos_escalation_outcomes_total",
			Help: "Total decision outcomes by policy and level",
		}, []string{"policy", "level"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "custos_escalation_evaluate_duration_seconds",
			Help:    "Duration of a full evaluation including audit emission",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		Escalations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custos_escalation_queued_total",
			Help: "Total cases escalated to human review by policy",
		}, []string{"policy"}),

		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custos_escalation_resolutions_total",
			Help: "Total escalation resolutions by verdict",
		}, []string{"verdict"}),
	}
}

// IncOutcome records one decision outcome.
func (m *Metrics) IncOutcome(policy, level string) {
	if m != nil {
		m.Outcomes.WithLabelValues(policy, level).Inc()
	}
}

// ObserveEvaluateLatency records a full evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

// IncEscalation records one case routed to the review queue.
func (m *Metrics) IncEscalation(policy string) {
	if m != nil {
		m.Escalations.WithLabelValues(policy).Inc()
	}
}

// IncResolution records one reviewer verdict.
func (m *Metrics) IncResolution(verdict string) {
	if m != nil {
		m.Resolutions.WithLabelValues(verdict).Inc()
	}
}
