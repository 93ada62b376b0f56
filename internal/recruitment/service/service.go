package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubhouse/internal/audit"
	"clubhouse/internal/authz"
	membershipModels "clubhouse/internal/membership/models"
	membershipService "clubhouse/internal/membership/service"
	orgModels "clubhouse/internal/org/models"
	"clubhouse/internal/recruitment/metrics"
	"clubhouse/internal/recruitment/models"
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/platform/sentinel"
	"clubhouse/pkg/requestcontext"
)

type Store interface {
	CreateApplication(ctx context.Context, app *models.Application) error
	FindApplication(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error)
	TransitionApplication(ctx context.Context, applicationID id.ApplicationID, from, to models.Status, at time.Time) error
	ListApplicationsByPerson(ctx context.Context, personID id.PersonID) ([]*models.Application, error)
	ListApplicationsBySociety(ctx context.Context, societyID id.SocietyID, status *models.Status) ([]*models.Application, error)
	CreatePanel(ctx context.Context, panel *models.Panel) error
	FindPanel(ctx context.Context, panelID id.PanelID) (*models.Panel, error)
	ListPanels(ctx context.Context, societyID id.SocietyID) ([]*models.Panel, error)
	CreateFeedback(ctx context.Context, fb *models.Feedback) error
	ListFeedback(ctx context.Context, applicationID id.ApplicationID) ([]*models.Feedback, error)
}

type StandingResolver interface {
	Resolve(ctx context.Context, personID id.PersonID, societyID id.SocietyID) (authz.Standing, error)
}

type Directory interface {
	GetSociety(ctx context.Context, societyID id.SocietyID) (*orgModels.Society, error)
	GetDepartment(ctx context.Context, departmentID id.DepartmentID) (*orgModels.Department, error)
}

type MembershipLedger interface {
	SetActiveMembership(ctx context.Context, personID id.PersonID, target membershipModels.Target) (*membershipModels.Membership, error)
}

// PersonTx serializes a person's final choice. It is satisfied by the
// membership StoreTx implementations. Atomic reports whether a failed fn
// rolls back the writes it already made.
type PersonTx interface {
	RunInTx(ctx context.Context, personID id.PersonID, fn func(ctx context.Context) error) error
	Atomic() bool
}

// Service runs the recruitment pipeline.
type Service struct {
	store       Store
	standing    StandingResolver
	directory   Directory
	memberships MembershipLedger

	tx             PersonTx
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
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

// WithTx sets the boundary around a final choice. It must not be the same
// in-memory lock the membership ledger uses, since that one is not
// reentrant.
func WithTx(tx PersonTx) Option {
	return func(s *Service) { s.tx = tx }
}

func New(store Store, standing StandingResolver, directory Directory, memberships MembershipLedger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		standing:    standing,
		directory:   directory,
		memberships: memberships,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = membershipService.NewShardedTx()
	}
	return s
}

func (s *Service) loadApplication(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	app, err := s.store.FindApplication(ctx, applicationID)
	if err != nil {
		return nil, translateErr(err, "application")
	}
	return app, nil
}

func (s *Service) loadPanel(ctx context.Context, panelID id.PanelID) (*models.Panel, error) {
	panel, err := s.store.FindPanel(ctx, panelID)
	if err != nil {
		return nil, translateErr(err, "panel")
	}
	return panel, nil
}

// requireManager resolves actor's standing in societyID and checks it covers
// departmentID.
func (s *Service) requireManager(ctx context.Context, actor id.PersonID, societyID id.SocietyID, departmentID *id.DepartmentID) (authz.Standing, error) {
	standing, err := s.standing.Resolve(ctx, actor, societyID)
	if err != nil {
		return authz.Standing{}, err
	}
	if err := authz.RequireManager(standing, departmentID); err != nil {
		return authz.Standing{}, err
	}
	return standing, nil
}

func translateErr(err error, entity string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, entity+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+entity)
}

func (s *Service) logAudit(ctx context.Context, actor id.PersonID, action audit.Action, model, targetID string, metadata map[string]any) {
	if s.auditPublisher == nil {
		return
	}
	s.auditPublisher.Record(ctx, audit.Event{
		ActorID:     actor,
		ActorRole:   requestcontext.RoleHint(ctx),
		Action:      action,
		TargetModel: model,
		TargetID:    targetID,
		Metadata:    metadata,
	})
}
