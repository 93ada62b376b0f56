package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks invite issuance and redemption.
type Metrics struct {
	Issued             *prometheus.CounterVec
	Redeemed           *prometheus.CounterVec
	RedemptionFailures *prometheus.CounterVec
	Revoked            prometheus.Counter
	TokenCollisions    prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Issued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clubhouse_invites_issued_total",
			Help: "Invites issued, by role and kind",
		}, []string{"role", "kind"}),
		Redeemed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clubhouse_invites_redeemed_total",
			Help: "Invites redeemed, by role",
		}, []string{"role"}),
		RedemptionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clubhouse_invite_redemption_failures_total",
			Help: "Rejected redemptions, by error code",
		}, []string{"reason"}),
		Revoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubhouse_invites_revoked_total",
			Help: "Invites revoked before use",
		}),
		TokenCollisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubhouse_invite_token_collisions_total",
			Help: "Generated invite tokens that were already taken",
		}),
	}
}

func (m *Metrics) IncrementIssued(role, kind string) {
	if m == nil {
		return
	}
	m.Issued.WithLabelValues(role, kind).Inc()
}

func (m *Metrics) IncrementRedeemed(role string) {
	if m == nil {
		return
	}
	m.Redeemed.WithLabelValues(role).Inc()
}

func (m *Metrics) IncrementRedemptionFailure(reason string) {
	if m == nil {
		return
	}
	m.RedemptionFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementRevoked() {
	if m == nil {
		return
	}
	m.Revoked.Inc()
}

func (m *Metrics) IncrementTokenCollision() {
	if m == nil {
		return
	}
	m.TokenCollisions.Inc()
}
