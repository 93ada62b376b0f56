package store

import (
	"context"
	"sync"
	"time"

	"clubhouse/internal/membership/models"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/platform/sentinel"
)

// InMemoryMembershipStore mirrors the Postgres constraints: Create rejects a
// second active membership for the same person.
type InMemoryMembershipStore struct {
	mu      sync.RWMutex
	byID    map[id.MembershipID]*models.Membership
	ordered []id.MembershipID
}

func NewInMemory() *InMemoryMembershipStore {
	return &InMemoryMembershipStore{byID: make(map[id.MembershipID]*models.Membership)}
}

func (s *InMemoryMembershipStore) FindActive(_ context.Context, personID id.PersonID) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.byID {
		if m.PersonID == personID && m.Active {
			return clone(m), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Deactivate ends an active membership. It fails with ErrInvalidState if the
// membership was already ended, so a stale caller cannot end it twice.
func (s *InMemoryMembershipStore) Deactivate(_ context.Context, membershipID id.MembershipID, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[membershipID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !m.Active {
		return sentinel.ErrInvalidState
	}
	m.End(endedAt)
	return nil
}

func (s *InMemoryMembershipStore) Create(_ context.Context, m *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.Active {
		for _, existing := range s.byID {
			if existing.PersonID == m.PersonID && existing.Active {
				return sentinel.ErrConflict
			}
		}
	}
	s.byID[m.ID] = clone(m)
	s.ordered = append(s.ordered, m.ID)
	return nil
}

func (s *InMemoryMembershipStore) List(_ context.Context, filter models.Filter) ([]*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Membership
	for _, membershipID := range s.ordered {
		if m := s.byID[membershipID]; filter.Matches(m) {
			out = append(out, clone(m))
		}
	}
	return out, nil
}

func (s *InMemoryMembershipStore) ListByPerson(_ context.Context, personID id.PersonID) ([]*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Membership
	for _, membershipID := range s.ordered {
		if m := s.byID[membershipID]; m.PersonID == personID {
			out = append(out, clone(m))
		}
	}
	return out, nil
}

func clone(m *models.Membership) *models.Membership {
	c := *m
	if m.DepartmentID != nil {
		dept := *m.DepartmentID
		c.DepartmentID = &dept
	}
	if m.EndedAt != nil {
		ended := *m.EndedAt
		c.EndedAt = &ended
	}
	return &c
}
