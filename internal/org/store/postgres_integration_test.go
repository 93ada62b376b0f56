//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clubhouse/internal/org/models"
	"clubhouse/internal/org/store"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/platform/sentinel"
	"clubhouse/pkg/testutil/containers"
)

type PostgresDirectorySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresDirectory
}

func TestPostgresDirectorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresDirectorySuite))
}

func (s *PostgresDirectorySuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresDirectorySuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(),
		"departments", "societies", "colleges", "persons"))
}

func (s *PostgresDirectorySuite) TestRoundTrip() {
	ctx := context.Background()
	coordinator := s.postgres.SeedPerson(s.T(), "prof@uni.edu")
	president := s.postgres.SeedPerson(s.T(), "pres@uni.edu")

	college, err := models.NewCollege("Sciences", "dean@uni.edu", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateCollege(ctx, college))

	society, err := models.NewSociety(college.ID, "Astronomy", coordinator, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateSociety(ctx, society))
	s.Require().NoError(s.store.SetPresident(ctx, society.ID, president))

	found, err := s.store.FindSociety(ctx, society.ID)
	s.Require().NoError(err)
	s.True(found.IsCoordinator(coordinator))
	s.Require().NotNil(found.PresidentID)
	s.Equal(president, *found.PresidentID)

	list, err := s.store.ListSocieties(ctx, college.ID)
	s.Require().NoError(err)
	s.Len(list, 1)

	dept, err := models.NewDepartment(society.ID, "Outreach", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateDepartment(ctx, dept))
	dup, err := models.NewDepartment(society.ID, "outreach", time.Now())
	s.Require().NoError(err)
	s.ErrorIs(s.store.CreateDepartment(ctx, dup), sentinel.ErrConflict)

	_, err = s.store.FindDepartment(ctx, id.NewDepartmentID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
