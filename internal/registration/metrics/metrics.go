package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the admission module.
type Metrics struct {
	// Admission outcomes by operation and result.
	Outcomes *prometheus.CounterVec

	// Full decision latency including the serialized ledger section.
	DecisionLatency *prometheus.HistogramVec

	// Waitlist promotions triggered by cancellations.
	Promotions prometheus.Counter
}

// New creates a Metrics instance with all admission metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsefit_admission_outcomes_total",
			Help: "Admission outcomes by operation and result",
		}, []string{"operation", "outcome"}),

		DecisionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pulsefit_admission_decision_duration_seconds",
			Help:    "Duration of admission decisions including the locked section",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),

		Promotions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pulsefit_admission_promotions_total",
			Help: "Waitlist promotions triggered by cancellations",
		}),
	}
}

// IncrementOutcome records one admission outcome.
func (m *Metrics) IncrementOutcome(operation, outcome string) {
	if m != nil {
		m.Outcomes.WithLabelValues(operation, outcome).Inc()
	}
}

// ObserveDecision records the duration of one decision.
func (m *Metrics) ObserveDecision(operation string, d time.Duration) {
	if m != nil {
		m.DecisionLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

// IncrementPromotions records one waitlist promotion.
func (m *Metrics) IncrementPromotions() {
	if m != nil {
		m.Promotions.Inc()
	}
}
