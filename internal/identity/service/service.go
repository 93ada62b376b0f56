package service

import (
	"context"
	"log/slog"
	"time"

	"clubhouse/internal/audit"
	"clubhouse/internal/identity/metrics"
	"clubhouse/internal/identity/models"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/secrets"
)

type PersonStore interface {
	Create(ctx context.Context, p *models.Person) error
	FindByID(ctx context.Context, personID id.PersonID) (*models.Person, error)
	FindByEmail(ctx context.Context, email string) (*models.Person, error)
	Delete(ctx context.Context, personID id.PersonID) error
}

type ChallengeStore interface {
	Create(ctx context.Context, c *models.Challenge) error
	Latest(ctx context.Context, email string) (*models.Challenge, error)
	Consume(ctx context.Context, email, code string) error
}

type ConfigStore interface {
	Get(ctx context.Context) (*models.PlatformConfig, error)
	AddAdminEmails(ctx context.Context, emails []string, now time.Time) (*models.PlatformConfig, error)
	AddFacultyEmails(ctx context.Context, emails []string, now time.Time) (*models.PlatformConfig, error)
}

const (
	defaultChallengeTTL = 10 * time.Minute
	codeDigits          = 6
	maxCodeAttempts     = 10
)

// Service owns OTP challenges, registration, login, and the platform
// allow-lists that gate privileged registration.
type Service struct {
	persons    PersonStore
	challenges ChallengeStore
	config     ConfigStore
	tokens     TokenIssuer

	mailer         Mailer
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics

	challengeTTL time.Duration
	bcryptCost   int
	generateCode func() (string, error)
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithMailer(m Mailer) Option {
	return func(s *Service) { s.mailer = m }
}

func WithChallengeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.challengeTTL = ttl
		}
	}
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost > 0 {
			s.bcryptCost = cost
		}
	}
}

// WithCodeGenerator replaces the random OTP source; tests use it to force
// collisions.
func WithCodeGenerator(fn func() (string, error)) Option {
	return func(s *Service) { s.generateCode = fn }
}

func New(persons PersonStore, challenges ChallengeStore, config ConfigStore, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		persons:      persons,
		challenges:   challenges,
		config:       config,
		tokens:       tokens,
		logger:       slog.Default(),
		challengeTTL: defaultChallengeTTL,
		bcryptCost:   secrets.PasswordCost,
		generateCode: func() (string, error) { return secrets.GenerateNumericCode(codeDigits) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetPerson returns the identity record for personID.
func (s *Service) GetPerson(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	p, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		return nil, translatePersonErr(err)
	}
	return p, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	s.auditPublisher.Record(ctx, event)
}
