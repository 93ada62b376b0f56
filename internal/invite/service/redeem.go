package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"clubhouse/internal/audit"
	"clubhouse/internal/invite/models"
	membershipModels "clubhouse/internal/membership/models"
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/platform/sentinel"
	"clubhouse/pkg/requestcontext"
)

// Lookup returns what a prospective member sees before accepting. Used and
// expired invites are reported as not found.
func (s *Service) Lookup(ctx context.Context, token string) (*models.Details, error) {
	inv, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv.Used || inv.IsExpiredAt(requestcontext.Now(ctx)) {
		return nil, dErrors.New(dErrors.CodeNotFound, "invite not found")
	}

	details := &models.Details{
		Kind:         inv.Kind,
		Role:         inv.Role,
		SocietyID:    inv.SocietyID,
		DepartmentID: inv.DepartmentID,
		Email:        inv.Recipient(),
		ExpiresAt:    inv.ExpiresAt,
	}
	if inv.IsLink() {
		details.Kind = models.KindLink
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		society, err := s.directory.GetSociety(gctx, inv.SocietyID)
		if err != nil {
			return err
		}
		details.SocietyName = society.Name
		return nil
	})
	if inv.DepartmentID != nil {
		g.Go(func() error {
			dept, err := s.directory.GetDepartment(gctx, *inv.DepartmentID)
			if err != nil {
				return err
			}
			details.DepartmentName = dept.Name
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}

// Redeem accepts the invite for an authenticated person and moves their
// single active membership into the invite's slot.
func (s *Service) Redeem(ctx context.Context, personID id.PersonID, address, token string) (*models.RedeemResult, error) {
	ctx, span := s.tracer.Start(ctx, "invite.Redeem")
	defer span.End()
	span.SetAttributes(attribute.String("person_id", personID.String()))

	inv, err := s.load(ctx, token)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := inv.CheckRedeemable(address, requestcontext.Now(ctx)); err != nil {
		s.metrics.IncrementRedemptionFailure(string(dErrors.CodeOf(err)))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	membership, err := s.apply(ctx, inv, personID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("role", inv.Role.String()))
	return &models.RedeemResult{Invite: inv, Membership: membership}, nil
}

// SignupWithInvite creates a student account and redeems the invite for it.
// A targeted invite must be redeemed with its own address; a link invite
// requires a verification code for the new address.
func (s *Service) SignupWithInvite(ctx context.Context, req *models.SignupRequest) (*models.SignupResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.load(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	if err := inv.CheckRedeemable(req.Email, requestcontext.Now(ctx)); err != nil {
		s.metrics.IncrementRedemptionFailure(string(dErrors.CodeOf(err)))
		return nil, err
	}
	if err := s.accounts.EnsureUnregistered(ctx, req.Email); err != nil {
		return nil, err
	}
	if inv.IsLink() {
		if req.Code == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "verification code is required")
		}
		if err := s.accounts.RedeemChallenge(ctx, req.Email, req.Code); err != nil {
			return nil, err
		}
	}

	person, err := s.accounts.CreateInvitedPerson(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		return nil, err
	}
	membership, err := s.apply(ctx, inv, person.ID)
	if err != nil {
		s.discard(ctx, inv, person.ID)
		return nil, err
	}
	session, err := s.accounts.IssueSession(person)
	if err != nil {
		return nil, err
	}
	return &models.SignupResult{
		Person:      session.Person,
		AccessToken: session.AccessToken,
		ExpiresAt:   session.ExpiresAt,
		Membership:  membership,
	}, nil
}

// apply claims the invite and performs the membership transition. The claim
// is released when the transition fails so the holder can retry.
func (s *Service) apply(ctx context.Context, inv *models.Invite, personID id.PersonID) (*membershipModels.Membership, error) {
	now := requestcontext.Now(ctx)
	if err := s.store.MarkUsed(ctx, inv.Token, &personID, now); err != nil {
		s.metrics.IncrementRedemptionFailure("claimed")
		return nil, translateClaimErr(err)
	}

	membership, err := s.memberships.SetActiveMembership(ctx, personID, inv.MembershipTarget())
	if err != nil {
		s.release(ctx, inv, personID)
		s.metrics.IncrementRedemptionFailure("membership")
		return nil, err
	}

	if inv.Role == id.RolePresident {
		if err := s.directory.SetPresident(ctx, inv.SocietyID, personID); err != nil {
			s.logger.ErrorContext(ctx, "failed to record society president",
				"society_id", inv.SocietyID.String(),
				"person_id", personID.String(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}

	inv.Used = true
	inv.UsedAt = &now
	inv.UsedBy = &personID
	s.metrics.IncrementRedeemed(inv.Role.String())
	s.logAudit(ctx, personID, audit.ActionInviteRedeemed, inv, map[string]any{
		"membership_id": membership.ID.String(),
	})
	return membership, nil
}

func (s *Service) release(ctx context.Context, inv *models.Invite, personID id.PersonID) {
	if err := s.store.Release(ctx, inv.Token, personID); err != nil {
		s.logger.ErrorContext(ctx, "failed to release invite claim",
			"invite_id", inv.ID.String(),
			"person_id", personID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// discard removes a signup account whose invite was not applied. apply has
// already released any claim it took, so the invite no longer references it.
func (s *Service) discard(ctx context.Context, inv *models.Invite, personID id.PersonID) {
	if err := s.accounts.DiscardInvitedPerson(ctx, personID); err != nil {
		s.logger.ErrorContext(ctx, "failed to discard invited person",
			"invite_id", inv.ID.String(),
			"person_id", personID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (s *Service) load(ctx context.Context, token string) (*models.Invite, error) {
	if token == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "token is required")
	}
	inv, err := s.store.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "invite not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load invite")
	}
	return inv, nil
}

func translateClaimErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "invite is invalid or already used")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "invite not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to claim invite")
	}
}

