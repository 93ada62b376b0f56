package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks rate limit decisions and bucket store health.
type Metrics struct {
	Checks             *prometheus.CounterVec
	StoreErrors        prometheus.Counter
	FallbackActive     prometheus.Gauge
	BreakerTransitions *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Checks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clubhouse_ratelimit_checks_total",
			Help: "Rate limit checks by endpoint class and outcome",
		}, []string{"class", "outcome"}),
		StoreErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubhouse_ratelimit_store_errors_total",
			Help: "Primary bucket store failures",
		}),
		FallbackActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "clubhouse_ratelimit_fallback_active",
			Help: "1 while checks are served by the in-process fallback store",
		}),
		BreakerTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clubhouse_ratelimit_breaker_transitions_total",
			Help: "Circuit breaker state changes by target state",
		}, []string{"state"}),
	}
}

func (m *Metrics) IncrementCheck(class, outcome string) {
	if m == nil {
		return
	}
	m.Checks.WithLabelValues(class, outcome).Inc()
}

func (m *Metrics) IncrementStoreError() {
	if m == nil {
		return
	}
	m.StoreErrors.Inc()
}

func (m *Metrics) SetFallbackActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.FallbackActive.Set(1)
	} else {
		m.FallbackActive.Set(0)
	}
}

func (m *Metrics) IncrementBreakerTransition(state string) {
	if m == nil {
		return
	}
	m.BreakerTransitions.WithLabelValues(state).Inc()
}
