package service

import (
	"context"
	"errors"

	"clubhouse/internal/audit"
	"clubhouse/internal/authz"
	"clubhouse/internal/invite/models"
	"clubhouse/internal/mailer"
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/platform/sentinel"
	"clubhouse/pkg/requestcontext"
)

// Issue creates an invite into societyID on behalf of actor. Targeted
// invites are mailed to the recipient; link invites are returned for the
// issuer to share.
func (s *Service) Issue(ctx context.Context, actor id.PersonID, societyID id.SocietyID, req *models.IssueRequest) (*models.IssueResult, error) {
	now := requestcontext.Now(ctx)
	req.Normalize()
	if err := req.Validate(now); err != nil {
		return nil, err
	}
	role := id.Role(req.Role)

	standing, err := s.standing.Resolve(ctx, actor, societyID)
	if err != nil {
		return nil, err
	}
	if err := authz.EvaluateInvite(standing, role, req.DepartmentID); err != nil {
		return nil, err
	}
	if req.DepartmentID != nil {
		dept, err := s.directory.GetDepartment(ctx, *req.DepartmentID)
		if err != nil {
			return nil, err
		}
		if dept.SocietyID != societyID {
			return nil, dErrors.New(dErrors.CodeValidation, "department does not belong to this society")
		}
	}

	expiresAt := now.Add(s.defaultTTL)
	if req.ExpiresAt != nil {
		expiresAt = *req.ExpiresAt
	}
	inv := &models.Invite{
		ID:           id.NewInviteID(),
		Kind:         req.Kind(),
		Email:        req.Email,
		SocietyID:    societyID,
		DepartmentID: req.DepartmentID,
		Role:         role,
		ExpiresAt:    expiresAt,
		IssuedBy:     actor,
		CreatedAt:    now,
	}
	if err := s.createWithToken(ctx, inv); err != nil {
		return nil, err
	}

	s.metrics.IncrementIssued(role.String(), string(inv.Kind))
	s.logAudit(ctx, actor, audit.ActionInviteIssued, inv, map[string]any{"recipient": inv.Recipient()})

	acceptURL := mailer.AcceptInviteURL(s.clientOrigin, inv.Token)
	if !inv.IsLink() {
		s.deliverInvite(ctx, inv, standing.Society.Name, acceptURL)
	}
	return &models.IssueResult{Invite: inv, AcceptURL: acceptURL}, nil
}

// createWithToken assigns a fresh random token, retrying on the unlikely
// collision.
func (s *Service) createWithToken(ctx context.Context, inv *models.Invite) error {
	for range maxTokenAttempts {
		token, err := s.generateToken()
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate invite token")
		}
		inv.Token = token
		if inv.Kind == models.KindLink {
			inv.Email = models.LinkPlaceholder(token)
		}
		err = s.store.Create(ctx, inv)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store invite")
		}
		s.metrics.IncrementTokenCollision()
	}
	return dErrors.New(dErrors.CodeInternal, "could not allocate a unique invite token")
}

func (s *Service) deliverInvite(ctx context.Context, inv *models.Invite, societyName, acceptURL string) {
	if s.mailer == nil {
		return
	}
	msg, err := mailer.InviteMessage(inv.Email, societyName, inv.Role.String(), acceptURL)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to deliver invite",
			"invite_id", inv.ID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// ListBySociety returns invites newest first. Coordinators and CORE see all
// of them; a department head sees the invites scoped to their department.
func (s *Service) ListBySociety(ctx context.Context, actor id.PersonID, societyID id.SocietyID) ([]*models.Invite, error) {
	standing, err := s.standing.Resolve(ctx, actor, societyID)
	if err != nil {
		return nil, err
	}
	var headOf *id.DepartmentID
	if !standing.CanManageSociety() {
		if standing.Membership == nil || standing.Membership.Role != id.RoleHead || standing.Membership.DepartmentID == nil {
			return nil, dErrors.New(dErrors.CodeForbidden, "not allowed to view invites for this society")
		}
		headOf = standing.Membership.DepartmentID
	}

	list, err := s.store.ListBySociety(ctx, societyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list invites")
	}
	if headOf == nil {
		return list, nil
	}
	scoped := list[:0]
	for _, inv := range list {
		if inv.DepartmentID != nil && *inv.DepartmentID == *headOf {
			scoped = append(scoped, inv)
		}
	}
	return scoped, nil
}

// Revoke retires an unused invite. Only its issuer or the society's
// coordinator may revoke it.
func (s *Service) Revoke(ctx context.Context, actor id.PersonID, token string) error {
	inv, err := s.load(ctx, token)
	if err != nil {
		return err
	}
	if inv.IssuedBy != actor {
		standing, err := s.standing.Resolve(ctx, actor, inv.SocietyID)
		if err != nil {
			return err
		}
		if !standing.Coordinator {
			return dErrors.New(dErrors.CodeForbidden, "only the issuer or the coordinator can revoke this invite")
		}
	}
	if err := s.store.MarkUsed(ctx, token, nil, requestcontext.Now(ctx)); err != nil {
		return translateClaimErr(err)
	}
	s.metrics.IncrementRevoked()
	s.logAudit(ctx, actor, audit.ActionInviteRevoked, inv, nil)
	return nil
}
