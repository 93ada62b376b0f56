package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"clubhouse/internal/audit"
	"clubhouse/internal/authz"
	membershipModels "clubhouse/internal/membership/models"
	membershipService "clubhouse/internal/membership/service"
	membershipstore "clubhouse/internal/membership/store"
	orgModels "clubhouse/internal/org/models"
	orgService "clubhouse/internal/org/service"
	orgstore "clubhouse/internal/org/store"
	"clubhouse/internal/recruitment/models"
	"clubhouse/internal/recruitment/service/mocks"
	recruitmentstore "clubhouse/internal/recruitment/store"
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/requestcontext"
)

type RecruitmentServiceSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	audit       *mocks.MockAuditPublisher
	store       *recruitmentstore.InMemoryRecruitmentStore
	org         *orgService.Service
	memberships *membershipService.Service
	service     *Service

	now     time.Time
	faculty id.PersonID
	college *orgModels.College
}

func TestRecruitmentServiceSuite(t *testing.T) {
	suite.Run(t, new(RecruitmentServiceSuite))
}

func (s *RecruitmentServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.audit = mocks.NewMockAuditPublisher(s.ctrl)
	s.now = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	directory := orgstore.NewInMemory()
	s.memberships = membershipService.New(membershipstore.NewInMemory())
	resolver := authz.NewResolver(directory, s.memberships)
	s.org = orgService.New(directory, resolver, s.memberships)
	s.store = recruitmentstore.NewInMemory()
	s.service = New(s.store, resolver, s.org, s.memberships, WithAuditPublisher(s.audit))

	s.faculty = id.NewPersonID()
	college, err := s.org.CreateCollege(s.ctx(), id.NewPersonID(), &orgModels.CreateCollegeRequest{
		Name: "College of Arts", AdminEmail: "dean@uni.edu",
	})
	s.Require().NoError(err)
	s.college = college
}

func (s *RecruitmentServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

// tick advances the clock so creation order is observable.
func (s *RecruitmentServiceSuite) tick() context.Context {
	s.now = s.now.Add(time.Minute)
	return s.ctx()
}

func (s *RecruitmentServiceSuite) quietAudit() {
	s.audit.EXPECT().Record(gomock.Any(), gomock.Any()).AnyTimes()
}

func (s *RecruitmentServiceSuite) createSociety(name string) *orgModels.Society {
	society, err := s.org.CreateSociety(s.ctx(), s.faculty, &orgModels.CreateSocietyRequest{CollegeID: s.college.ID, Name: name})
	s.Require().NoError(err)
	return society
}

func (s *RecruitmentServiceSuite) createDepartment(society *orgModels.Society, name string) *orgModels.Department {
	dept, err := s.org.CreateDepartment(s.ctx(), s.faculty, society.ID, &orgModels.CreateDepartmentRequest{Name: name})
	s.Require().NoError(err)
	return dept
}

func (s *RecruitmentServiceSuite) apply(person id.PersonID, society *orgModels.Society, dept *orgModels.Department) *models.Application {
	req := &models.ApplyRequest{Answers: map[string]string{"why": "I like it"}}
	if dept != nil {
		req.DepartmentID = &dept.ID
	}
	app, err := s.service.Apply(s.tick(), person, society.ID, req)
	s.Require().NoError(err)
	return app
}

func (s *RecruitmentServiceSuite) moveTo(app *models.Application, statuses ...models.Status) {
	for _, status := range statuses {
		_, err := s.service.UpdateStatus(s.ctx(), s.faculty, app.ID, &models.StatusRequest{Status: string(status)})
		s.Require().NoError(err)
	}
}

func (s *RecruitmentServiceSuite) status(app *models.Application) models.Status {
	stored, err := s.store.FindApplication(context.Background(), app.ID)
	s.Require().NoError(err)
	return stored.Status
}

func (s *RecruitmentServiceSuite) TestApply() {
	s.quietAudit()
	society := s.createSociety("Drama")
	person := id.NewPersonID()

	s.Run("creates an APPLIED application", func() {
		app := s.apply(person, society, nil)
		s.Equal(models.StatusApplied, app.Status)
		s.Equal("I like it", app.Answers["why"])
	})

	s.Run("a second live application conflicts", func() {
		_, err := s.service.Apply(s.ctx(), person, society.ID, &models.ApplyRequest{})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown society", func() {
		_, err := s.service.Apply(s.ctx(), person, id.NewSocietyID(), &models.ApplyRequest{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("department from another society", func() {
		other := s.createDepartment(s.createSociety("Music"), "Strings")
		_, err := s.service.Apply(s.ctx(), id.NewPersonID(), society.ID, &models.ApplyRequest{DepartmentID: &other.ID})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("reapply after rejection", func() {
		applicant := id.NewPersonID()
		app := s.apply(applicant, society, nil)
		s.moveTo(app, models.StatusRejected)
		s.apply(applicant, society, nil)
	})
}

func (s *RecruitmentServiceSuite) TestConcurrentApplyLeavesOneLive() {
	s.quietAudit()
	society := s.createSociety("Chess")
	person := id.NewPersonID()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.service.Apply(s.ctx(), person, society.ID, &models.ApplyRequest{})
		}()
	}
	wg.Wait()

	apps, err := s.service.ListMine(s.ctx(), person)
	s.Require().NoError(err)
	s.Len(apps, 1)
}

func (s *RecruitmentServiceSuite) TestUpdateStatus() {
	s.quietAudit()
	society := s.createSociety("Film")
	editing := s.createDepartment(society, "Editing")
	app := s.apply(id.NewPersonID(), society, editing)

	s.Run("skipping the shortlist is rejected", func() {
		_, err := s.service.UpdateStatus(s.ctx(), s.faculty, app.ID, &models.StatusRequest{Status: "SELECTED"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("a plain member cannot manage", func() {
		member := id.NewPersonID()
		_, err := s.memberships.SetActiveMembership(s.ctx(), member, membershipModels.Target{SocietyID: society.ID, Role: id.RoleMember})
		s.Require().NoError(err)
		_, err = s.service.UpdateStatus(s.ctx(), member, app.ID, &models.StatusRequest{Status: "SHORTLISTED"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("the department head can shortlist", func() {
		head := id.NewPersonID()
		_, err := s.memberships.SetActiveMembership(s.ctx(), head, membershipModels.Target{
			SocietyID: society.ID, DepartmentID: &editing.ID, Role: id.RoleHead,
		})
		s.Require().NoError(err)
		updated, err := s.service.UpdateStatus(s.ctx(), head, app.ID, &models.StatusRequest{Status: "shortlisted"})
		s.Require().NoError(err)
		s.Equal(models.StatusShortlisted, updated.Status)
	})

	s.Run("no way back", func() {
		s.moveTo(app, models.StatusSelected, models.StatusRejected)
		_, err := s.service.UpdateStatus(s.ctx(), s.faculty, app.ID, &models.StatusRequest{Status: "SHORTLISTED"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown application", func() {
		_, err := s.service.UpdateStatus(s.ctx(), s.faculty, id.NewApplicationID(), &models.StatusRequest{Status: "REJECTED"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *RecruitmentServiceSuite) TestWithdraw() {
	s.quietAudit()
	society := s.createSociety("Debate")
	person := id.NewPersonID()
	app := s.apply(person, society, nil)

	_, err := s.service.Withdraw(s.ctx(), id.NewPersonID(), app.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	withdrawn, err := s.service.Withdraw(s.ctx(), person, app.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusWithdrawn, withdrawn.Status)

	_, err = s.service.Withdraw(s.ctx(), person, app.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *RecruitmentServiceSuite) TestChooseFinalSociety() {
	s.quietAudit()
	societyA, societyB, societyC := s.createSociety("A"), s.createSociety("B"), s.createSociety("C")
	person := id.NewPersonID()
	appA := s.apply(person, societyA, nil)
	appB := s.apply(person, societyB, nil)
	appC := s.apply(person, societyC, nil)
	s.moveTo(appA, models.StatusShortlisted, models.StatusSelected)
	s.moveTo(appB, models.StatusShortlisted, models.StatusSelected)
	s.moveTo(appC, models.StatusShortlisted)

	result, err := s.service.ChooseFinalSociety(s.ctx(), person, appA.ID)
	s.Require().NoError(err)
	s.Equal([]id.ApplicationID{appB.ID}, result.Rejected)
	s.Equal(societyA.ID, result.Membership.SocietyID)
	s.Equal(id.RoleMember, result.Membership.Role)

	s.Equal(models.StatusSelected, s.status(appA))
	s.Equal(models.StatusRejected, s.status(appB))
	s.Equal(models.StatusShortlisted, s.status(appC))

	active, err := s.memberships.GetActive(s.ctx(), person)
	s.Require().NoError(err)
	s.Equal(result.Membership.ID, active.ID)

	s.Run("repeating the choice is a no-op", func() {
		again, err := s.service.ChooseFinalSociety(s.ctx(), person, appA.ID)
		s.Require().NoError(err)
		s.Empty(again.Rejected)
		s.Equal(result.Membership.ID, again.Membership.ID)

		history, err := s.memberships.History(s.ctx(), person)
		s.Require().NoError(err)
		s.Len(history, 1)
	})

	s.Run("a rejected offer cannot be chosen", func() {
		_, err := s.service.ChooseFinalSociety(s.ctx(), person, appB.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("someone else's offer cannot be chosen", func() {
		_, err := s.service.ChooseFinalSociety(s.ctx(), id.NewPersonID(), appA.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// listOutage fails person listings while down is set.
type listOutage struct {
	*recruitmentstore.InMemoryRecruitmentStore
	down bool
}

func (o *listOutage) ListApplicationsByPerson(ctx context.Context, personID id.PersonID) ([]*models.Application, error) {
	if o.down {
		return nil, errors.New("connection reset")
	}
	return o.InMemoryRecruitmentStore.ListApplicationsByPerson(ctx, personID)
}

func (s *RecruitmentServiceSuite) TestChooseFinalSocietyReportsPartialChoice() {
	s.quietAudit()
	societyA, societyB := s.createSociety("Chess"), s.createSociety("Go")
	person := id.NewPersonID()
	appA := s.apply(person, societyA, nil)
	appB := s.apply(person, societyB, nil)
	s.moveTo(appA, models.StatusShortlisted, models.StatusSelected)
	s.moveTo(appB, models.StatusShortlisted, models.StatusSelected)

	outage := &listOutage{InMemoryRecruitmentStore: s.store, down: true}
	s.service.store = outage
	_, err := s.service.ChooseFinalSociety(s.ctx(), person, appA.ID)
	s.Equal(dErrors.CodeInconsistentState, dErrors.CodeOf(err))

	active, err := s.memberships.GetActive(s.ctx(), person)
	s.Require().NoError(err)
	s.Equal(societyA.ID, active.SocietyID)
	s.Equal(models.StatusSelected, s.status(appB))

	s.Run("retrying completes the choice", func() {
		outage.down = false
		result, err := s.service.ChooseFinalSociety(s.ctx(), person, appA.ID)
		s.Require().NoError(err)
		s.Equal([]id.ApplicationID{appB.ID}, result.Rejected)
		s.Equal(active.ID, result.Membership.ID)
		s.Equal(models.StatusRejected, s.status(appB))
	})
}

func (s *RecruitmentServiceSuite) TestChooseFinalSocietyAudits() {
	society := s.createSociety("Poetry")
	person := id.NewPersonID()
	s.audit.EXPECT().Record(gomock.Any(), gomock.Not(gomock.Cond(func(e audit.Event) bool {
		return e.Action == audit.ActionFinalSocietyChosen
	}))).AnyTimes()
	app := s.apply(person, society, nil)
	s.moveTo(app, models.StatusShortlisted, models.StatusSelected)

	s.audit.EXPECT().Record(gomock.Any(), gomock.Cond(func(e audit.Event) bool {
		return e.Action == audit.ActionFinalSocietyChosen && e.ActorID == person && e.TargetID == app.ID.String()
	})).Times(1)
	_, err := s.service.ChooseFinalSociety(s.ctx(), person, app.ID)
	s.Require().NoError(err)
}

func (s *RecruitmentServiceSuite) TestFeedback() {
	s.quietAudit()
	society := s.createSociety("Robotics")
	app := s.apply(id.NewPersonID(), society, nil)
	first, second := id.NewPersonID(), id.NewPersonID()

	panel, err := s.service.CreatePanel(s.ctx(), s.faculty, society.ID, &models.PanelRequest{
		Name:           " Round one ",
		ApplicationIDs: []id.ApplicationID{app.ID, app.ID},
		InterviewerIDs: []id.PersonID{first, second},
	})
	s.Require().NoError(err)
	s.Equal("Round one", panel.Name)
	s.Len(panel.ApplicationIDs, 1)

	submit := func(interviewer id.PersonID) error {
		_, err := s.service.SubmitFeedback(s.tick(), interviewer, panel.ID, &models.FeedbackRequest{
			ApplicationID: app.ID, Rating: 4, Recommendation: "SELECT", Comments: "solid",
		})
		return err
	}

	s.Require().NoError(submit(first))
	s.Require().NoError(submit(second))
	s.True(dErrors.HasCode(submit(first), dErrors.CodeConflict))
	s.True(dErrors.HasCode(submit(id.NewPersonID()), dErrors.CodeForbidden))

	_, err = s.service.SubmitFeedback(s.ctx(), first, panel.ID, &models.FeedbackRequest{
		ApplicationID: id.NewApplicationID(), Rating: 3, Recommendation: "HOLD",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	list, err := s.service.ListFeedback(s.ctx(), s.faculty, app.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(first, list[0].InterviewerID)

	_, err = s.service.ListFeedback(s.ctx(), first, app.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *RecruitmentServiceSuite) TestCreatePanelValidation() {
	s.quietAudit()
	society := s.createSociety("Photography")
	other := s.createSociety("Sculpture")
	foreign := s.apply(id.NewPersonID(), other, nil)

	_, err := s.service.CreatePanel(s.ctx(), s.faculty, society.ID, &models.PanelRequest{
		Name: "Mixed", ApplicationIDs: []id.ApplicationID{foreign.ID}, InterviewerIDs: []id.PersonID{s.faculty},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.CreatePanel(s.ctx(), s.faculty, society.ID, &models.PanelRequest{Name: "Empty"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.CreatePanel(s.ctx(), id.NewPersonID(), society.ID, &models.PanelRequest{
		Name: "Sneaky", InterviewerIDs: []id.PersonID{s.faculty},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *RecruitmentServiceSuite) TestListVisibility() {
	s.quietAudit()
	society := s.createSociety("Coding")
	backend, frontend := s.createDepartment(society, "Backend"), s.createDepartment(society, "Frontend")
	s.apply(id.NewPersonID(), society, backend)
	s.apply(id.NewPersonID(), society, frontend)
	shortlisted := s.apply(id.NewPersonID(), society, frontend)
	s.moveTo(shortlisted, models.StatusShortlisted)

	head := id.NewPersonID()
	_, err := s.memberships.SetActiveMembership(s.ctx(), head, membershipModels.Target{
		SocietyID: society.ID, DepartmentID: &backend.ID, Role: id.RoleHead,
	})
	s.Require().NoError(err)

	all, err := s.service.ListForSociety(s.ctx(), s.faculty, society.ID, nil)
	s.Require().NoError(err)
	s.Len(all, 3)

	status := models.StatusShortlisted
	filtered, err := s.service.ListForSociety(s.ctx(), s.faculty, society.ID, &status)
	s.Require().NoError(err)
	s.Require().Len(filtered, 1)
	s.Equal(shortlisted.ID, filtered[0].ID)

	scoped, err := s.service.ListForSociety(s.ctx(), head, society.ID, nil)
	s.Require().NoError(err)
	s.Require().Len(scoped, 1)
	s.Equal(backend.ID, *scoped[0].DepartmentID)

	_, err = s.service.ListForSociety(s.ctx(), id.NewPersonID(), society.ID, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	interviewer := id.NewPersonID()
	_, err = s.service.CreatePanel(s.ctx(), s.faculty, society.ID, &models.PanelRequest{
		Name: "Frontend panel", DepartmentID: &frontend.ID, InterviewerIDs: []id.PersonID{interviewer},
	})
	s.Require().NoError(err)

	panels, err := s.service.ListPanels(s.ctx(), interviewer, society.ID)
	s.Require().NoError(err)
	s.Len(panels, 1)
	panels, err = s.service.ListPanels(s.ctx(), head, society.ID)
	s.Require().NoError(err)
	s.Empty(panels)
}
