//go:build integration

package platformconfig_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clubhouse/internal/identity/store/platformconfig"
	"clubhouse/pkg/testutil/containers"
)

type PostgresConfigStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *platformconfig.PostgresStore
}

func TestPostgresConfigStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresConfigStoreSuite))
}

func (s *PostgresConfigStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = platformconfig.NewPostgres(s.postgres.DB)
}

func (s *PostgresConfigStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "platform_config"))
}

func (s *PostgresConfigStoreSuite) TestGetCreatesEmptyRow() {
	cfg, err := s.store.Get(context.Background())
	s.Require().NoError(err)
	s.Empty(cfg.AdminEmails)
	s.Empty(cfg.FacultyEmails)
}

func (s *PostgresConfigStoreSuite) TestAppendDedupesAndKeepsOrder() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := s.store.AddAdminEmails(ctx, []string{"b@uni.edu", "a@uni.edu"}, now)
	s.Require().NoError(err)
	cfg, err := s.store.AddAdminEmails(ctx, []string{" A@uni.edu ", "c@uni.edu"}, now)
	s.Require().NoError(err)

	s.Equal([]string{"b@uni.edu", "a@uni.edu", "c@uni.edu"}, cfg.AdminEmails)
	s.Empty(cfg.FacultyEmails)
	s.True(now.Equal(cfg.UpdatedAt))

	cfg, err = s.store.AddFacultyEmails(ctx, []string{"prof@uni.edu"}, now)
	s.Require().NoError(err)
	s.Equal([]string{"prof@uni.edu"}, cfg.FacultyEmails)
	s.Len(cfg.AdminEmails, 3)
}

func (s *PostgresConfigStoreSuite) TestConcurrentAppendsLoseNothing() {
	ctx := context.Background()
	const writers = 12
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.AddFacultyEmails(ctx, []string{fmt.Sprintf("f%d@uni.edu", i)}, time.Now())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	cfg, err := s.store.Get(ctx)
	s.Require().NoError(err)
	s.Len(cfg.FacultyEmails, writers)
}
