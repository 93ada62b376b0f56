package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"clubhouse/internal/audit"
	"clubhouse/internal/authz"
	identityModels "clubhouse/internal/identity/models"
	"clubhouse/internal/invite/metrics"
	"clubhouse/internal/invite/models"
	membershipModels "clubhouse/internal/membership/models"
	orgModels "clubhouse/internal/org/models"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/requestcontext"
	"clubhouse/pkg/secrets"
)

// Store persists invites. MarkUsed must fail with sentinel.ErrAlreadyUsed
// for every caller but the first.
type Store interface {
	Create(ctx context.Context, inv *models.Invite) error
	FindByToken(ctx context.Context, token string) (*models.Invite, error)
	MarkUsed(ctx context.Context, token string, usedBy *id.PersonID, at time.Time) error
	Release(ctx context.Context, token string, usedBy id.PersonID) error
	ListBySociety(ctx context.Context, societyID id.SocietyID) ([]*models.Invite, error)
}

type StandingResolver interface {
	Resolve(ctx context.Context, personID id.PersonID, societyID id.SocietyID) (authz.Standing, error)
}

// Directory resolves display names and records display presidents.
type Directory interface {
	GetSociety(ctx context.Context, societyID id.SocietyID) (*orgModels.Society, error)
	GetDepartment(ctx context.Context, departmentID id.DepartmentID) (*orgModels.Department, error)
	SetPresident(ctx context.Context, societyID id.SocietyID, personID id.PersonID) error
}

// MembershipLedger performs the deactivate-then-create transition.
type MembershipLedger interface {
	SetActiveMembership(ctx context.Context, personID id.PersonID, target membershipModels.Target) (*membershipModels.Membership, error)
}

// Accounts creates the person behind a signup-with-invite and removes it
// again when the invite cannot be applied.
type Accounts interface {
	EnsureUnregistered(ctx context.Context, address string) error
	RedeemChallenge(ctx context.Context, address, code string) error
	CreateInvitedPerson(ctx context.Context, address, name, password string) (*identityModels.Person, error)
	DiscardInvitedPerson(ctx context.Context, personID id.PersonID) error
	IssueSession(person *identityModels.Person) (*identityModels.RegisterResult, error)
}

const (
	defaultInviteTTL = 7 * 24 * time.Hour
	maxTokenAttempts = 3
)

// Service issues and redeems invites.
type Service struct {
	store       Store
	standing    StandingResolver
	directory   Directory
	memberships MembershipLedger
	accounts    Accounts

	mailer         Mailer
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer

	clientOrigin  string
	defaultTTL    time.Duration
	generateToken func() (string, error)
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

// WithClientOrigin sets the frontend origin used in accept links.
func WithClientOrigin(origin string) Option {
	return func(s *Service) { s.clientOrigin = origin }
}

func WithDefaultTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.defaultTTL = ttl
		}
	}
}

func WithTokenGenerator(fn func() (string, error)) Option {
	return func(s *Service) { s.generateToken = fn }
}

func New(store Store, standing StandingResolver, directory Directory, memberships MembershipLedger, accounts Accounts, opts ...Option) *Service {
	s := &Service{
		store:         store,
		standing:      standing,
		directory:     directory,
		memberships:   memberships,
		accounts:      accounts,
		logger:        slog.Default(),
		tracer:        otel.Tracer("clubhouse/invite"),
		defaultTTL:    defaultInviteTTL,
		generateToken: secrets.GenerateToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) logAudit(ctx context.Context, actor id.PersonID, action audit.Action, inv *models.Invite, metadata map[string]any) {
	if s.auditPublisher == nil {
		return
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["society_id"] = inv.SocietyID.String()
	metadata["role"] = inv.Role.String()
	metadata["kind"] = string(inv.Kind)
	s.auditPublisher.Record(ctx, audit.Event{
		ActorID:     actor,
		ActorRole:   requestcontext.RoleHint(ctx),
		Action:      action,
		TargetModel: audit.ModelInvite,
		TargetID:    inv.ID.String(),
		Metadata:    metadata,
	})
}
