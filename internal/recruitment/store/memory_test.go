package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clubhouse/internal/recruitment/models"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/platform/sentinel"
)

type InMemoryRecruitmentStoreSuite struct {
	suite.Suite
	store *InMemoryRecruitmentStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryRecruitmentStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryRecruitmentStoreSuite))
}

func (s *InMemoryRecruitmentStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
}

func (s *InMemoryRecruitmentStoreSuite) TestOneLiveApplication() {
	person, society := id.NewPersonID(), id.NewSocietyID()
	first := models.NewApplication(person, society, nil, nil, s.now)
	s.Require().NoError(s.store.CreateApplication(s.ctx, first))

	s.ErrorIs(s.store.CreateApplication(s.ctx, models.NewApplication(person, society, nil, nil, s.now)), sentinel.ErrConflict)
	s.NoError(s.store.CreateApplication(s.ctx, models.NewApplication(person, id.NewSocietyID(), nil, nil, s.now)))

	s.Require().NoError(s.store.TransitionApplication(s.ctx, first.ID, models.StatusApplied, models.StatusWithdrawn, s.now))
	s.NoError(s.store.CreateApplication(s.ctx, models.NewApplication(person, society, nil, nil, s.now)))
}

func (s *InMemoryRecruitmentStoreSuite) TestTransitionIsCompareAndSwap() {
	app := models.NewApplication(id.NewPersonID(), id.NewSocietyID(), nil, nil, s.now)
	s.Require().NoError(s.store.CreateApplication(s.ctx, app))

	later := s.now.Add(time.Hour)
	s.Require().NoError(s.store.TransitionApplication(s.ctx, app.ID, models.StatusApplied, models.StatusShortlisted, later))
	s.ErrorIs(s.store.TransitionApplication(s.ctx, app.ID, models.StatusApplied, models.StatusRejected, later), sentinel.ErrInvalidState)
	s.ErrorIs(s.store.TransitionApplication(s.ctx, id.NewApplicationID(), models.StatusApplied, models.StatusRejected, later), sentinel.ErrNotFound)

	stored, err := s.store.FindApplication(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusShortlisted, stored.Status)
	s.Equal(later, stored.UpdatedAt)
}

func (s *InMemoryRecruitmentStoreSuite) TestListOrdering() {
	person, society := id.NewPersonID(), id.NewSocietyID()
	older := models.NewApplication(person, society, nil, nil, s.now)
	newer := models.NewApplication(id.NewPersonID(), society, nil, nil, s.now.Add(time.Minute))
	elsewhere := models.NewApplication(person, id.NewSocietyID(), nil, nil, s.now.Add(2*time.Minute))
	for _, app := range []*models.Application{older, newer, elsewhere} {
		s.Require().NoError(s.store.CreateApplication(s.ctx, app))
	}

	bySociety, err := s.store.ListApplicationsBySociety(s.ctx, society, nil)
	s.Require().NoError(err)
	s.Require().Len(bySociety, 2)
	s.Equal(older.ID, bySociety[0].ID)

	byPerson, err := s.store.ListApplicationsByPerson(s.ctx, person)
	s.Require().NoError(err)
	s.Require().Len(byPerson, 2)
	s.Equal(elsewhere.ID, byPerson[0].ID)
}

func (s *InMemoryRecruitmentStoreSuite) TestFeedbackTripleIsUnique() {
	panel, interviewer, app := id.NewPanelID(), id.NewPersonID(), id.NewApplicationID()
	fb := func(who id.PersonID) *models.Feedback {
		return &models.Feedback{
			ID: id.NewFeedbackID(), PanelID: panel, InterviewerID: who, ApplicationID: app,
			Rating: 3, Recommendation: models.RecommendHold, CreatedAt: s.now,
		}
	}
	s.Require().NoError(s.store.CreateFeedback(s.ctx, fb(interviewer)))
	s.Require().NoError(s.store.CreateFeedback(s.ctx, fb(id.NewPersonID())))
	s.ErrorIs(s.store.CreateFeedback(s.ctx, fb(interviewer)), sentinel.ErrConflict)

	list, err := s.store.ListFeedback(s.ctx, app)
	s.Require().NoError(err)
	s.Len(list, 2)
}

func (s *InMemoryRecruitmentStoreSuite) TestPanelsAreCopied() {
	panel := &models.Panel{
		ID: id.NewPanelID(), SocietyID: id.NewSocietyID(), Name: "Round one",
		InterviewerIDs: []id.PersonID{id.NewPersonID()}, CreatedAt: s.now,
	}
	s.Require().NoError(s.store.CreatePanel(s.ctx, panel))

	found, err := s.store.FindPanel(s.ctx, panel.ID)
	s.Require().NoError(err)
	found.InterviewerIDs[0] = id.NewPersonID()

	again, err := s.store.FindPanel(s.ctx, panel.ID)
	s.Require().NoError(err)
	s.Equal(panel.InterviewerIDs[0], again.InterviewerIDs[0])

	_, err = s.store.FindPanel(s.ctx, id.NewPanelID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
