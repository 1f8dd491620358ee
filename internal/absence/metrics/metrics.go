package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the absence workflow.
type Metrics struct {
	RequestsSubmitted prometheus.Counter
	Transitions       *prometheus.CounterVec
	DecisionConflicts prometheus.Counter
}

// New creates a Metrics instance with all workflow metrics registered.
func New() *Metrics {
	return &Metrics{
		RequestsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hrportal_absence_requests_submitted_total",
			Help: "Total number of absence requests submitted",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hrportal_absence_transitions_total",
			Help: "Total number of absence request status transitions",
		}, []string{"outcome"}),
		DecisionConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hrportal_absence_decision_conflicts_total",
			Help: "Total number of decisions rejected because the request was no longer pending",
		}),
	}
}

func (m *Metrics) IncrementSubmitted() {
	if m != nil {
		m.RequestsSubmitted.Inc()
	}
}

// IncrementTransition records a successful transition labelled by its outcome
// (stage_advanced, approved, rejected, cancelled, archived).
func (m *Metrics) IncrementTransition(outcome string) {
	if m != nil {
		m.Transitions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementDecisionConflict() {
	if m != nil {
		m.DecisionConflicts.Inc()
	}
}
