package authz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	membershipModels "clubhouse/internal/membership/models"
	membershipService "clubhouse/internal/membership/service"
	membershipstore "clubhouse/internal/membership/store"
	orgModels "clubhouse/internal/org/models"
	orgstore "clubhouse/internal/org/store"
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
)

type ResolverSuite struct {
	suite.Suite
	directory   *orgstore.InMemoryDirectory
	memberships *membershipService.Service
	resolver    *Resolver
	society     *orgModels.Society
	coordinator id.PersonID
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	ctx := context.Background()
	s.directory = orgstore.NewInMemory()
	s.memberships = membershipService.New(membershipstore.NewInMemory())
	s.resolver = NewResolver(s.directory, s.memberships)

	s.coordinator = id.NewPersonID()
	society, err := orgModels.NewSociety(id.NewCollegeID(), "Robotics", s.coordinator, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.directory.CreateSociety(ctx, society))
	s.society = society
}

func (s *ResolverSuite) TestResolve() {
	ctx := context.Background()

	s.Run("coordinator", func() {
		standing, err := s.resolver.Resolve(ctx, s.coordinator, s.society.ID)
		s.Require().NoError(err)
		s.True(standing.Coordinator)
		s.True(standing.CanManageSociety())
	})

	s.Run("core member of this society", func() {
		person := id.NewPersonID()
		_, err := s.memberships.SetActiveMembership(ctx, person, membershipModels.Target{SocietyID: s.society.ID, Role: id.RoleCore})
		s.Require().NoError(err)

		standing, err := s.resolver.Resolve(ctx, person, s.society.ID)
		s.Require().NoError(err)
		s.True(standing.IsCore())
		s.False(standing.Coordinator)
	})

	s.Run("membership elsewhere grants nothing here", func() {
		person := id.NewPersonID()
		_, err := s.memberships.SetActiveMembership(ctx, person, membershipModels.Target{SocietyID: id.NewSocietyID(), Role: id.RoleCore})
		s.Require().NoError(err)

		standing, err := s.resolver.Resolve(ctx, person, s.society.ID)
		s.Require().NoError(err)
		s.Nil(standing.Membership)
		s.False(standing.CanManageSociety())
	})

	s.Run("unknown society", func() {
		_, err := s.resolver.Resolve(ctx, s.coordinator, id.NewSocietyID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
