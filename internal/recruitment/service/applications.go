package service

import (
	"context"
	"errors"

	"clubhouse/internal/audit"
	membershipModels "clubhouse/internal/membership/models"
	"clubhouse/internal/recruitment/models"
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/platform/sentinel"
	"clubhouse/pkg/requestcontext"
)

// Apply submits personID's application to societyID. A person holds at most
// one live application per society.
func (s *Service) Apply(ctx context.Context, personID id.PersonID, societyID id.SocietyID, req *models.ApplyRequest) (*models.Application, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.directory.GetSociety(ctx, societyID); err != nil {
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

	app := models.NewApplication(personID, societyID, req.DepartmentID, req.Answers, requestcontext.Now(ctx))
	if err := s.store.CreateApplication(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "you already have an active application for this society")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create application")
	}

	s.metrics.IncrementApplications()
	s.logAudit(ctx, personID, audit.ActionApplicationSubmitted, audit.ModelApplication, app.ID.String(), map[string]any{
		"society_id": societyID.String(),
	})
	return app, nil
}

// UpdateStatus moves an application forward on behalf of a society manager
// or the head of the application's department.
func (s *Service) UpdateStatus(ctx context.Context, actor id.PersonID, applicationID id.ApplicationID, req *models.StatusRequest) (*models.Application, error) {
	next, err := req.Target()
	if err != nil {
		return nil, err
	}
	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireManager(ctx, actor, app.SocietyID, app.DepartmentID); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, app, next); err != nil {
		return nil, err
	}
	s.logAudit(ctx, actor, audit.ActionApplicationStatusChanged, audit.ModelApplication, app.ID.String(), map[string]any{
		"status": string(next),
	})
	return app, nil
}

// Withdraw lets the applicant retract an application that has not been
// rejected. Other people's applications are reported as not found.
func (s *Service) Withdraw(ctx context.Context, personID id.PersonID, applicationID id.ApplicationID) (*models.Application, error) {
	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.PersonID != personID {
		return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	if err := s.transition(ctx, app, models.StatusWithdrawn); err != nil {
		return nil, err
	}
	s.logAudit(ctx, personID, audit.ActionApplicationWithdrawn, audit.ModelApplication, app.ID.String(), nil)
	return app, nil
}

// transition applies app.Status -> next as a compare-and-swap and updates
// app in place.
func (s *Service) transition(ctx context.Context, app *models.Application, next models.Status) error {
	if !app.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeConflict, "cannot move application from "+string(app.Status)+" to "+string(next))
	}
	now := requestcontext.Now(ctx)
	if err := s.store.TransitionApplication(ctx, app.ID, app.Status, next, now); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeConflict, "application was changed concurrently")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "application not found")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update application")
		}
	}
	app.Status = next
	app.UpdatedAt = now
	s.metrics.IncrementStatusChange(string(next))
	return nil
}

// ChooseFinalSociety accepts one SELECTED offer. The person becomes a MEMBER
// of the chosen society and every other SELECTED application they hold is
// rejected. The chosen application stays SELECTED, so repeating the call
// changes nothing.
func (s *Service) ChooseFinalSociety(ctx context.Context, personID id.PersonID, applicationID id.ApplicationID) (*models.ChoiceResult, error) {
	var result *models.ChoiceResult
	err := s.tx.RunInTx(ctx, personID, func(ctx context.Context) error {
		chosen, err := s.store.FindApplication(ctx, applicationID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
		}
		if err != nil || chosen.PersonID != personID || chosen.Status != models.StatusSelected {
			return dErrors.New(dErrors.CodeNotFound, "no selected application found")
		}

		membership, err := s.memberships.SetActiveMembership(ctx, personID, membershipModels.Target{
			SocietyID:    chosen.SocietyID,
			DepartmentID: chosen.DepartmentID,
			Role:         id.RoleMember,
		})
		if err != nil {
			return err
		}

		rejected, err := s.rejectCompetingOffers(ctx, personID, chosen.ID)
		if err != nil {
			if s.tx.Atomic() {
				return err
			}
			s.logger.ErrorContext(ctx, "membership started but competing offers were not rejected",
				"person_id", personID.String(),
				"application_id", chosen.ID.String(),
				"membership_id", membership.ID.String(),
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			return dErrors.Wrap(err, dErrors.CodeInconsistentState,
				"membership was started but competing offers could not be rejected; retry the request")
		}
		result = &models.ChoiceResult{Application: chosen, Membership: membership, Rejected: rejected}
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, err
	}

	s.metrics.IncrementFinalChoice(len(result.Rejected))
	s.logAudit(ctx, personID, audit.ActionFinalSocietyChosen, audit.ModelApplication, applicationID.String(), map[string]any{
		"society_id":    result.Application.SocietyID.String(),
		"membership_id": result.Membership.ID.String(),
		"rejected":      len(result.Rejected),
	})
	for _, rejectedID := range result.Rejected {
		s.logAudit(ctx, personID, audit.ActionApplicationStatusChanged, audit.ModelApplication, rejectedID.String(), map[string]any{
			"status": string(models.StatusRejected),
			"reason": "final_society_chosen",
		})
	}
	return result, nil
}

// rejectCompetingOffers rejects personID's other SELECTED applications.
// Applications that already moved on are left alone.
func (s *Service) rejectCompetingOffers(ctx context.Context, personID id.PersonID, keep id.ApplicationID) ([]id.ApplicationID, error) {
	apps, err := s.store.ListApplicationsByPerson(ctx, personID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	now := requestcontext.Now(ctx)
	rejected := []id.ApplicationID{}
	for _, app := range apps {
		if app.ID == keep || app.Status != models.StatusSelected {
			continue
		}
		err := s.store.TransitionApplication(ctx, app.ID, models.StatusSelected, models.StatusRejected, now)
		if errors.Is(err, sentinel.ErrInvalidState) {
			continue
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reject competing application")
		}
		s.metrics.IncrementStatusChange(string(models.StatusRejected))
		rejected = append(rejected, app.ID)
	}
	return rejected, nil
}

// ListMine returns personID's applications, newest first.
func (s *Service) ListMine(ctx context.Context, personID id.PersonID) ([]*models.Application, error) {
	apps, err := s.store.ListApplicationsByPerson(ctx, personID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

// ListForSociety returns the society's applications in submission order.
// A department head sees only applications to their department.
func (s *Service) ListForSociety(ctx context.Context, actor id.PersonID, societyID id.SocietyID, status *models.Status) ([]*models.Application, error) {
	standing, err := s.standing.Resolve(ctx, actor, societyID)
	if err != nil {
		return nil, err
	}
	headOf := departmentScope(standing.CanManageSociety(), standing.Membership)
	if !standing.CanManageSociety() && headOf == nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "requires coordinator, core or department head standing")
	}

	apps, err := s.store.ListApplicationsBySociety(ctx, societyID, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	if headOf == nil {
		return apps, nil
	}
	scoped := apps[:0]
	for _, app := range apps {
		if app.DepartmentID != nil && *app.DepartmentID == *headOf {
			scoped = append(scoped, app)
		}
	}
	return scoped, nil
}

// departmentScope returns the department a non-manager heads, or nil.
func departmentScope(manager bool, m *membershipModels.Membership) *id.DepartmentID {
	if manager || m == nil || m.Role != id.RoleHead {
		return nil
	}
	return m.DepartmentID
}
