package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"clubhouse/internal/audit"
	"clubhouse/internal/membership/metrics"
	"clubhouse/internal/membership/models"
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/platform/sentinel"
	"clubhouse/pkg/requestcontext"
)

// Store persists memberships. Create must reject a second active membership
// for the same person with sentinel.ErrConflict.
type Store interface {
	FindActive(ctx context.Context, personID id.PersonID) (*models.Membership, error)
	Deactivate(ctx context.Context, membershipID id.MembershipID, endedAt time.Time) error
	Create(ctx context.Context, m *models.Membership) error
	List(ctx context.Context, filter models.Filter) ([]*models.Membership, error)
	ListByPerson(ctx context.Context, personID id.PersonID) ([]*models.Membership, error)
}

// Service is the single writer of membership state. Every transition runs
// inside StoreTx so at most one membership per person is ever active.
type Service struct {
	store          Store
	tx             StoreTx
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
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

// WithTx replaces the in-memory per-person lock, typically with the
// Postgres row-locking transaction.
func WithTx(tx StoreTx) Option {
	return func(s *Service) { s.tx = tx }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer("clubhouse/membership"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewShardedTx()
	}
	return s
}

// SetActiveMembership moves personID into target, ending any other active
// membership in the same transaction. Repeating a call for the slot the
// person already holds returns the existing membership unchanged.
func (s *Service) SetActiveMembership(ctx context.Context, personID id.PersonID, target models.Target) (*models.Membership, error) {
	if personID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "person is required")
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "membership.SetActiveMembership", trace.WithAttributes(
		attribute.String("person_id", personID.String()),
		attribute.String("society_id", target.SocietyID.String()),
		attribute.String("role", target.Role.String()),
	))
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveTransition(time.Since(start).Seconds()) }()

	now := requestcontext.Now(ctx)
	var (
		ended   *models.Membership
		created *models.Membership
		noop    bool
	)
	err := s.tx.RunInTx(ctx, personID, func(ctx context.Context) error {
		ended, created, noop = nil, nil, false

		current, err := s.findActive(ctx, personID)
		if err != nil {
			return err
		}
		if current != nil && current.Holds(target) {
			created, noop = current, true
			return nil
		}
		if current != nil {
			if err := s.store.Deactivate(ctx, current.ID, now); err != nil {
				if errors.Is(err, sentinel.ErrInvalidState) {
					return dErrors.New(dErrors.CodeConflict, "membership changed concurrently")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to end current membership")
			}
			current.End(now)
			ended = current
		}

		next, err := models.NewMembership(personID, target, now)
		if err != nil {
			return err
		}
		if err := s.store.Create(ctx, next); err != nil {
			if ended != nil && !s.tx.Atomic() {
				s.metrics.IncrementInconsistent()
				s.logger.ErrorContext(ctx, "membership ended but replacement was not created",
					"person_id", personID.String(),
					"ended_membership_id", ended.ID.String(),
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				return dErrors.Wrap(err, dErrors.CodeInconsistentState,
					"previous membership was ended but the new membership could not be created; retry the request")
			}
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "person already has an active membership")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create membership")
		}
		created = next
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, dErrors.Message(err))
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		if _, ok := dErrors.As(err); !ok {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "membership transition failed")
		}
		return nil, err
	}

	if noop {
		s.metrics.IncrementNoOp()
		span.SetAttributes(attribute.Bool("noop", true))
		return created, nil
	}
	if ended != nil {
		s.metrics.IncrementEnded()
		s.logAudit(ctx, personID, audit.ActionMembershipEnded, ended, map[string]any{
			"society_id": ended.SocietyID.String(),
			"role":       ended.Role.String(),
			"reason":     "replaced",
		})
	}
	s.metrics.IncrementTransition(created.Role.String())
	s.logAudit(ctx, personID, audit.ActionMembershipStarted, created, map[string]any{
		"society_id": created.SocietyID.String(),
		"role":       created.Role.String(),
	})
	return created, nil
}

// Leave ends the person's active membership without starting another.
func (s *Service) Leave(ctx context.Context, personID id.PersonID) (*models.Membership, error) {
	now := requestcontext.Now(ctx)
	var ended *models.Membership
	err := s.tx.RunInTx(ctx, personID, func(ctx context.Context) error {
		current, err := s.findActive(ctx, personID)
		if err != nil {
			return err
		}
		if current == nil {
			return dErrors.New(dErrors.CodeNotFound, "no active membership")
		}
		if err := s.store.Deactivate(ctx, current.ID, now); err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				return dErrors.New(dErrors.CodeConflict, "membership changed concurrently")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to end membership")
		}
		current.End(now)
		ended = current
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, err
	}

	s.metrics.IncrementEnded()
	s.logAudit(ctx, personID, audit.ActionMembershipEnded, ended, map[string]any{
		"society_id": ended.SocietyID.String(),
		"role":       ended.Role.String(),
		"reason":     "left",
	})
	return ended, nil
}

// GetActive returns the person's active membership, or nil when there is none.
func (s *Service) GetActive(ctx context.Context, personID id.PersonID) (*models.Membership, error) {
	return s.findActive(ctx, personID)
}

// ListBy returns a roster ordered leadership first, then by start time.
func (s *Service) ListBy(ctx context.Context, filter models.Filter) ([]*models.Membership, error) {
	if filter.SocietyID == nil && filter.DepartmentID == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "society or department is required")
	}
	list, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list memberships")
	}
	models.SortRoster(list)
	return list, nil
}

// History returns every membership the person has held, newest first.
func (s *Service) History(ctx context.Context, personID id.PersonID) ([]*models.Membership, error) {
	list, err := s.store.ListByPerson(ctx, personID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load membership history")
	}
	models.SortNewestFirst(list)
	return list, nil
}

// ActiveHeadOf derives a department's head from the active HEAD membership
// scoped to it. It returns nil when the department has no head. If several
// heads are active the longest-serving one wins.
func (s *Service) ActiveHeadOf(ctx context.Context, departmentID id.DepartmentID) (*models.Membership, error) {
	heads, err := s.ListBy(ctx, models.Filter{
		DepartmentID: &departmentID,
		Role:         id.RoleHead,
		ActiveOnly:   true,
	})
	if err != nil {
		return nil, err
	}
	if len(heads) == 0 {
		return nil, nil
	}
	return heads[0], nil
}

func (s *Service) findActive(ctx context.Context, personID id.PersonID) (*models.Membership, error) {
	m, err := s.store.FindActive(ctx, personID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active membership")
	}
	return m, nil
}

func (s *Service) logAudit(ctx context.Context, personID id.PersonID, action audit.Action, m *models.Membership, metadata map[string]any) {
	if s.auditPublisher == nil {
		return
	}
	actor := requestcontext.PersonID(ctx)
	if actor.IsNil() {
		actor = personID
	}
	metadata["person_id"] = personID.String()
	s.auditPublisher.Record(ctx, audit.Event{
		ActorID:     actor,
		ActorRole:   requestcontext.RoleHint(ctx),
		Action:      action,
		TargetModel: audit.ModelMembership,
		TargetID:    m.ID.String(),
		Metadata:    metadata,
	})
}
