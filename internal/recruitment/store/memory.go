package store

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"clubhouse/internal/recruitment/models"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/platform/sentinel"
)

type feedbackKey struct {
	panel       id.PanelID
	interviewer id.PersonID
	application id.ApplicationID
}

// InMemoryRecruitmentStore holds applications, panels and feedback. Like the
// Postgres schema it refuses a second live application per person and
// society, and a second feedback per panel, interviewer and application.
type InMemoryRecruitmentStore struct {
	mu           sync.RWMutex
	applications map[id.ApplicationID]*models.Application
	panels       map[id.PanelID]*models.Panel
	feedback     map[feedbackKey]*models.Feedback
}

func NewInMemory() *InMemoryRecruitmentStore {
	return &InMemoryRecruitmentStore{
		applications: make(map[id.ApplicationID]*models.Application),
		panels:       make(map[id.PanelID]*models.Panel),
		feedback:     make(map[feedbackKey]*models.Feedback),
	}
}

func (s *InMemoryRecruitmentStore) CreateApplication(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if app.Status.IsLive() {
		for _, existing := range s.applications {
			if existing.PersonID == app.PersonID && existing.SocietyID == app.SocietyID && existing.Status.IsLive() {
				return sentinel.ErrConflict
			}
		}
	}
	s.applications[app.ID] = cloneApplication(app)
	return nil
}

func (s *InMemoryRecruitmentStore) FindApplication(_ context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.applications[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneApplication(app), nil
}

// TransitionApplication moves an application from one status to the next.
// It fails with ErrInvalidState when the stored status is no longer from.
func (s *InMemoryRecruitmentStore) TransitionApplication(_ context.Context, applicationID id.ApplicationID, from, to models.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[applicationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if app.Status != from {
		return sentinel.ErrInvalidState
	}
	app.Status = to
	app.UpdatedAt = at
	return nil
}

// ListApplicationsByPerson returns newest first.
func (s *InMemoryRecruitmentStore) ListApplicationsByPerson(_ context.Context, personID id.PersonID) ([]*models.Application, error) {
	return s.listApplications(func(a *models.Application) bool { return a.PersonID == personID }, true), nil
}

// ListApplicationsBySociety returns oldest first, optionally narrowed to one
// status.
func (s *InMemoryRecruitmentStore) ListApplicationsBySociety(_ context.Context, societyID id.SocietyID, status *models.Status) ([]*models.Application, error) {
	return s.listApplications(func(a *models.Application) bool {
		return a.SocietyID == societyID && (status == nil || a.Status == *status)
	}, false), nil
}

func (s *InMemoryRecruitmentStore) listApplications(match func(*models.Application) bool, newestFirst bool) []*models.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Application
	for _, app := range s.applications {
		if match(app) {
			out = append(out, cloneApplication(app))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *InMemoryRecruitmentStore) CreatePanel(_ context.Context, panel *models.Panel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.panels[panel.ID]; exists {
		return sentinel.ErrConflict
	}
	s.panels[panel.ID] = clonePanel(panel)
	return nil
}

func (s *InMemoryRecruitmentStore) FindPanel(_ context.Context, panelID id.PanelID) (*models.Panel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	panel, ok := s.panels[panelID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clonePanel(panel), nil
}

func (s *InMemoryRecruitmentStore) ListPanels(_ context.Context, societyID id.SocietyID) ([]*models.Panel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Panel
	for _, panel := range s.panels {
		if panel.SocietyID == societyID {
			out = append(out, clonePanel(panel))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryRecruitmentStore) CreateFeedback(_ context.Context, fb *models.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := feedbackKey{panel: fb.PanelID, interviewer: fb.InterviewerID, application: fb.ApplicationID}
	if _, exists := s.feedback[key]; exists {
		return sentinel.ErrConflict
	}
	c := *fb
	s.feedback[key] = &c
	return nil
}

func (s *InMemoryRecruitmentStore) ListFeedback(_ context.Context, applicationID id.ApplicationID) ([]*models.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Feedback
	for _, fb := range s.feedback {
		if fb.ApplicationID == applicationID {
			c := *fb
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func cloneApplication(app *models.Application) *models.Application {
	c := *app
	if app.DepartmentID != nil {
		dept := *app.DepartmentID
		c.DepartmentID = &dept
	}
	c.Answers = maps.Clone(app.Answers)
	return &c
}

func clonePanel(panel *models.Panel) *models.Panel {
	c := *panel
	if panel.DepartmentID != nil {
		dept := *panel.DepartmentID
		c.DepartmentID = &dept
	}
	c.ApplicationIDs = slices.Clone(panel.ApplicationIDs)
	c.InterviewerIDs = slices.Clone(panel.InterviewerIDs)
	return &c
}
