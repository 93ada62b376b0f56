package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks OTP issuance, registrations, and logins.
type Metrics struct {
	ChallengesIssued      prometheus.Counter
	CodeCollisions        prometheus.Counter
	ChallengeFailures     *prometheus.CounterVec
	Registrations         *prometheus.CounterVec
	LoginFailures         prometheus.Counter
	EmailDeliveryFailures prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChallengesIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubhouse_otp_challenges_issued_total",
			Help: "OTP challenges persisted",
		}),
		CodeCollisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubhouse_otp_code_collisions_total",
			Help: "Generated OTP codes rejected because they were already in use",
		}),
		ChallengeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clubhouse_otp_challenge_failures_total",
			Help: "OTP verification failures by reason",
		}, []string{"reason"}),
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clubhouse_registrations_total",
			Help: "Completed registrations by role",
		}, []string{"role"}),
		LoginFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubhouse_login_failures_total",
			Help: "Rejected login attempts",
		}),
		EmailDeliveryFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubhouse_otp_email_failures_total",
			Help: "OTP emails that could not be handed to the mailer",
		}),
	}
}

func (m *Metrics) IncrementChallengeFailure(reason string) {
	if m == nil {
		return
	}
	m.ChallengeFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementRegistration(role string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(role).Inc()
}

func (m *Metrics) IncrementChallengeIssued() {
	if m == nil {
		return
	}
	m.ChallengesIssued.Inc()
}

func (m *Metrics) IncrementCodeCollision() {
	if m == nil {
		return
	}
	m.CodeCollisions.Inc()
}

func (m *Metrics) IncrementLoginFailure() {
	if m == nil {
		return
	}
	m.LoginFailures.Inc()
}

func (m *Metrics) IncrementEmailDeliveryFailure() {
	if m == nil {
		return
	}
	m.EmailDeliveryFailures.Inc()
}
