package person

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clubhouse/internal/identity/models"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/platform/sentinel"
)

type InMemoryPersonStoreSuite struct {
	suite.Suite
	store *InMemoryPersonStore
	ctx   context.Context
}

func TestInMemoryPersonStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryPersonStoreSuite))
}

func (s *InMemoryPersonStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemoryPersonStoreSuite) newPerson(address string) *models.Person {
	p, err := models.NewPerson(id.NewPersonID(), address, "", "hash", id.RoleStudent, time.Now())
	s.Require().NoError(err)
	return p
}

func (s *InMemoryPersonStoreSuite) TestLookup() {
	p := s.newPerson("jane.doe@uni.edu")
	s.Require().NoError(s.store.Create(s.ctx, p))

	s.Run("by id", func() {
		found, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(p.Email, found.Email)
		s.Equal("Jane Doe", found.Name)
	})

	s.Run("by email is case-insensitive", func() {
		found, err := s.store.FindByEmail(s.ctx, "  JANE.DOE@uni.edu ")
		s.Require().NoError(err)
		s.Equal(p.ID, found.ID)
	})

	s.Run("missing returns ErrNotFound", func() {
		_, err := s.store.FindByEmail(s.ctx, "nobody@uni.edu")
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindByID(s.ctx, id.NewPersonID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryPersonStoreSuite) TestDuplicateEmailConflicts() {
	s.Require().NoError(s.store.Create(s.ctx, s.newPerson("dup@uni.edu")))
	err := s.store.Create(s.ctx, s.newPerson("DUP@uni.edu"))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *InMemoryPersonStoreSuite) TestSetActive() {
	p := s.newPerson("toggle@uni.edu")
	s.Require().NoError(s.store.Create(s.ctx, p))
	s.Require().NoError(s.store.SetActive(s.ctx, p.ID, false))

	found, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.False(found.Active)

	s.ErrorIs(s.store.SetActive(s.ctx, id.NewPersonID(), false), sentinel.ErrNotFound)
}

func (s *InMemoryPersonStoreSuite) TestDeleteFreesEmail() {
	p := s.newPerson("gone@uni.edu")
	s.Require().NoError(s.store.Create(s.ctx, p))
	s.Require().NoError(s.store.Delete(s.ctx, p.ID))

	_, err := s.store.FindByID(s.ctx, p.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.NoError(s.store.Create(s.ctx, s.newPerson("GONE@uni.edu")))

	s.ErrorIs(s.store.Delete(s.ctx, p.ID), sentinel.ErrNotFound)
}
