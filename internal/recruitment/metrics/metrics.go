package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the recruitment pipeline.
type Metrics struct {
	Applications  prometheus.Counter
	StatusChanges *prometheus.CounterVec
	FinalChoices  prometheus.Counter
	AutoRejected  prometheus.Counter
	Feedback      *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Applications: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubhouse_recruitment_applications_total",
			Help: "Applications submitted",
		}),
		StatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clubhouse_recruitment_status_changes_total",
			Help: "Application status changes, by target status",
		}, []string{"status"}),
		FinalChoices: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubhouse_recruitment_final_choices_total",
			Help: "Final society choices that produced a membership",
		}),
		AutoRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubhouse_recruitment_auto_rejected_total",
			Help: "Competing offers rejected by a final choice",
		}),
		Feedback: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clubhouse_recruitment_feedback_total",
			Help: "Interview feedback submitted, by recommendation",
		}, []string{"recommendation"}),
	}
}

func (m *Metrics) IncrementApplications() {
	if m == nil {
		return
	}
	m.Applications.Inc()
}

func (m *Metrics) IncrementStatusChange(status string) {
	if m == nil {
		return
	}
	m.StatusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementFinalChoice(rejected int) {
	if m == nil {
		return
	}
	m.FinalChoices.Inc()
	m.AutoRejected.Add(float64(rejected))
}

func (m *Metrics) IncrementFeedback(recommendation string) {
	if m == nil {
		return
	}
	m.Feedback.WithLabelValues(recommendation).Inc()
}
