package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the health of the best-effort audit pipeline.
type Metrics struct {
	Recorded        prometheus.Counter
	Dropped         prometheus.Counter
	PersistFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Recorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubhouse_audit_events_recorded_total",
			Help: "Audit events accepted into the buffer",
		}),
		Dropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubhouse_audit_events_dropped_total",
			Help: "Audit events dropped because the buffer was full",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubhouse_audit_persist_failures_total",
			Help: "Audit events the sink failed to persist",
		}),
	}
}

func (m *Metrics) incRecorded() {
	if m != nil {
		m.Recorded.Inc()
	}
}

func (m *Metrics) incDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

func (m *Metrics) incPersistFailure() {
	if m != nil {
		m.PersistFailures.Inc()
	}
}
