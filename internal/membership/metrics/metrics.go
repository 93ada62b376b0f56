package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks membership transitions.
type Metrics struct {
	Transitions        *prometheus.CounterVec
	Ended              prometheus.Counter
	NoOpTransitions    prometheus.Counter
	InconsistentStates prometheus.Counter
	TransitionDuration prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clubhouse_membership_transitions_total",
			Help: "Memberships started, by role",
		}, []string{"role"}),
		Ended: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubhouse_membership_ended_total",
			Help: "Memberships deactivated by a transition or by leaving",
		}),
		NoOpTransitions: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubhouse_membership_noop_transitions_total",
			Help: "Transitions skipped because the person already held the target",
		}),
		InconsistentStates: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubhouse_membership_inconsistent_states_total",
			Help: "Transitions that ended a membership but failed to start the next one",
		}),
		TransitionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "clubhouse_membership_transition_duration_seconds",
			Help:    "Time spent inside a membership transition",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementTransition(role string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(role).Inc()
}

func (m *Metrics) IncrementEnded() {
	if m == nil {
		return
	}
	m.Ended.Inc()
}

func (m *Metrics) IncrementNoOp() {
	if m == nil {
		return
	}
	m.NoOpTransitions.Inc()
}

func (m *Metrics) IncrementInconsistent() {
	if m == nil {
		return
	}
	m.InconsistentStates.Inc()
}

func (m *Metrics) ObserveTransition(seconds float64) {
	if m == nil {
		return
	}
	m.TransitionDuration.Observe(seconds)
}
