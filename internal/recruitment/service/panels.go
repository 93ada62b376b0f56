package service

import (
	"context"
	"errors"

	"clubhouse/internal/audit"
	"clubhouse/internal/recruitment/models"
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/platform/sentinel"
	"clubhouse/pkg/requestcontext"
)

// CreatePanel groups applications to the society under a set of
// interviewers. A department head may only create panels for their own
// department.
func (s *Service) CreatePanel(ctx context.Context, actor id.PersonID, societyID id.SocietyID, req *models.PanelRequest) (*models.Panel, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.requireManager(ctx, actor, societyID, req.DepartmentID); err != nil {
		return nil, err
	}
	for _, applicationID := range req.ApplicationIDs {
		app, err := s.loadApplication(ctx, applicationID)
		if err != nil {
			return nil, err
		}
		if app.SocietyID != societyID {
			return nil, dErrors.New(dErrors.CodeValidation, "application "+applicationID.String()+" is not for this society")
		}
		if req.DepartmentID != nil && (app.DepartmentID == nil || *app.DepartmentID != *req.DepartmentID) {
			return nil, dErrors.New(dErrors.CodeValidation, "application "+applicationID.String()+" is not for this department")
		}
	}

	panel := &models.Panel{
		ID:             id.NewPanelID(),
		SocietyID:      societyID,
		DepartmentID:   req.DepartmentID,
		Name:           req.Name,
		ApplicationIDs: dedupe(req.ApplicationIDs),
		InterviewerIDs: dedupe(req.InterviewerIDs),
		CreatedBy:      actor,
		CreatedAt:      requestcontext.Now(ctx),
	}
	if err := s.store.CreatePanel(ctx, panel); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create panel")
	}
	s.logAudit(ctx, actor, audit.ActionPanelCreated, audit.ModelPanel, panel.ID.String(), map[string]any{
		"society_id":   societyID.String(),
		"applications": len(panel.ApplicationIDs),
		"interviewers": len(panel.InterviewerIDs),
	})
	return panel, nil
}

// SubmitFeedback records an interviewer's verdict. Each interviewer gets one
// submission per application on a panel; feedback is never overwritten.
func (s *Service) SubmitFeedback(ctx context.Context, interviewer id.PersonID, panelID id.PanelID, req *models.FeedbackRequest) (*models.Feedback, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	panel, err := s.loadPanel(ctx, panelID)
	if err != nil {
		return nil, err
	}
	if !panel.HasInterviewer(interviewer) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only panel interviewers can submit feedback")
	}
	if !panel.Includes(req.ApplicationID) {
		return nil, dErrors.New(dErrors.CodeValidation, "application is not on this panel")
	}

	fb := &models.Feedback{
		ID:             id.NewFeedbackID(),
		PanelID:        panelID,
		InterviewerID:  interviewer,
		ApplicationID:  req.ApplicationID,
		Rating:         req.Rating,
		Comments:       req.Comments,
		Recommendation: models.Recommendation(req.Recommendation),
		CreatedAt:      requestcontext.Now(ctx),
	}
	if err := s.store.CreateFeedback(ctx, fb); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "feedback already submitted for this application")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store feedback")
	}

	s.metrics.IncrementFeedback(req.Recommendation)
	s.logAudit(ctx, interviewer, audit.ActionFeedbackSubmitted, audit.ModelFeedback, fb.ID.String(), map[string]any{
		"panel_id":       panelID.String(),
		"application_id": req.ApplicationID.String(),
		"recommendation": req.Recommendation,
	})
	return fb, nil
}

// ListFeedback returns all feedback on an application to those who may
// manage it.
func (s *Service) ListFeedback(ctx context.Context, actor id.PersonID, applicationID id.ApplicationID) ([]*models.Feedback, error) {
	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireManager(ctx, actor, app.SocietyID, app.DepartmentID); err != nil {
		return nil, err
	}
	list, err := s.store.ListFeedback(ctx, applicationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list feedback")
	}
	return list, nil
}

// ListPanels returns the society's panels, newest first. Heads see the
// panels of their department; interviewers see the panels they sit on.
func (s *Service) ListPanels(ctx context.Context, actor id.PersonID, societyID id.SocietyID) ([]*models.Panel, error) {
	standing, err := s.standing.Resolve(ctx, actor, societyID)
	if err != nil {
		return nil, err
	}
	panels, err := s.store.ListPanels(ctx, societyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list panels")
	}
	if standing.CanManageSociety() {
		return panels, nil
	}
	visible := panels[:0]
	for _, panel := range panels {
		if panel.HasInterviewer(actor) || standing.CanManageDepartment(panel.DepartmentID) {
			visible = append(visible, panel)
		}
	}
	return visible, nil
}

func dedupe[T comparable](in []T) []T {
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
