package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"clubhouse/internal/authz"
	membershipModels "clubhouse/internal/membership/models"
	"clubhouse/internal/org/models"
	"clubhouse/internal/org/service/mocks"
	orgstore "clubhouse/internal/org/store"
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
)

type OrgServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	standing  *mocks.MockStandingResolver
	heads     *mocks.MockHeadLookup
	audit     *mocks.MockAuditPublisher
	directory *orgstore.InMemoryDirectory
	service   *Service
	faculty   id.PersonID
	college   *models.College
}

func TestOrgServiceSuite(t *testing.T) {
	suite.Run(t, new(OrgServiceSuite))
}

func (s *OrgServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.standing = mocks.NewMockStandingResolver(s.ctrl)
	s.heads = mocks.NewMockHeadLookup(s.ctrl)
	s.audit = mocks.NewMockAuditPublisher(s.ctrl)
	s.directory = orgstore.NewInMemory()
	s.service = New(s.directory, s.standing, s.heads, WithAuditPublisher(s.audit))
	s.faculty = id.NewPersonID()

	s.audit.EXPECT().Record(gomock.Any(), gomock.Any()).AnyTimes()
	college, err := s.service.CreateCollege(context.Background(), id.NewPersonID(), &models.CreateCollegeRequest{
		Name: "College of Engineering", AdminEmail: "Dean@Uni.edu",
	})
	s.Require().NoError(err)
	s.college = college
}

func (s *OrgServiceSuite) createSociety(name string) *models.Society {
	society, err := s.service.CreateSociety(context.Background(), s.faculty, &models.CreateSocietyRequest{
		CollegeID: s.college.ID, Name: name,
	})
	s.Require().NoError(err)
	return society
}

func (s *OrgServiceSuite) TestCreateCollege() {
	s.Equal("dean@uni.edu", s.college.AdminEmail)

	_, err := s.service.CreateCollege(context.Background(), id.NewPersonID(), &models.CreateCollegeRequest{Name: "  "})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *OrgServiceSuite) TestCreateSociety() {
	s.Run("caller becomes coordinator", func() {
		society := s.createSociety("Robotics")
		s.True(society.IsCoordinator(s.faculty))
		s.Nil(society.PresidentID)
	})

	s.Run("unknown college", func() {
		_, err := s.service.CreateSociety(context.Background(), s.faculty, &models.CreateSocietyRequest{
			CollegeID: id.NewCollegeID(), Name: "Drama",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *OrgServiceSuite) TestCreateDepartment() {
	society := s.createSociety("Robotics")
	ctx := context.Background()

	s.Run("coordinator may add departments", func() {
		s.standing.EXPECT().Resolve(gomock.Any(), s.faculty, society.ID).
			Return(authz.Standing{PersonID: s.faculty, Society: society, Coordinator: true}, nil)
		dept, err := s.service.CreateDepartment(ctx, s.faculty, society.ID, &models.CreateDepartmentRequest{Name: "Events"})
		s.Require().NoError(err)
		s.Equal(society.ID, dept.SocietyID)
	})

	s.Run("names are unique per society", func() {
		s.standing.EXPECT().Resolve(gomock.Any(), s.faculty, society.ID).
			Return(authz.Standing{PersonID: s.faculty, Society: society, Coordinator: true}, nil)
		_, err := s.service.CreateDepartment(ctx, s.faculty, society.ID, &models.CreateDepartmentRequest{Name: "events"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("plain members may not", func() {
		member := id.NewPersonID()
		s.standing.EXPECT().Resolve(gomock.Any(), member, society.ID).Return(authz.Standing{
			PersonID: member, Society: society,
			Membership: &membershipModels.Membership{SocietyID: society.ID, Role: id.RoleMember, Active: true},
		}, nil)
		_, err := s.service.CreateDepartment(ctx, member, society.ID, &models.CreateDepartmentRequest{Name: "Design"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *OrgServiceSuite) TestDepartmentHead() {
	society := s.createSociety("Chess")
	dept, err := models.NewDepartment(society.ID, "Tournaments", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.directory.CreateDepartment(context.Background(), dept))

	s.Run("derived from the active HEAD membership", func() {
		head := id.NewPersonID()
		s.heads.EXPECT().ActiveHeadOf(gomock.Any(), dept.ID).
			Return(&membershipModels.Membership{PersonID: head, DepartmentID: &dept.ID, Role: id.RoleHead, Active: true}, nil)
		result, err := s.service.DepartmentHead(context.Background(), dept.ID)
		s.Require().NoError(err)
		s.Require().NotNil(result.PersonID)
		s.Equal(head, *result.PersonID)
	})

	s.Run("vacant", func() {
		s.heads.EXPECT().ActiveHeadOf(gomock.Any(), dept.ID).Return(nil, nil)
		result, err := s.service.DepartmentHead(context.Background(), dept.ID)
		s.Require().NoError(err)
		s.Nil(result.PersonID)
	})

	s.Run("unknown department", func() {
		_, err := s.service.DepartmentHead(context.Background(), id.NewDepartmentID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *OrgServiceSuite) TestSetPresident() {
	society := s.createSociety("Debate")
	president := id.NewPersonID()
	s.Require().NoError(s.service.SetPresident(context.Background(), society.ID, president))

	found, err := s.service.GetSociety(context.Background(), society.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.PresidentID)
	s.Equal(president, *found.PresidentID)

	err = s.service.SetPresident(context.Background(), id.NewSocietyID(), president)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
