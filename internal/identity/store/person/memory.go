package person

import (
	"context"
	"sync"

	"clubhouse/internal/identity/models"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/email"
	"clubhouse/pkg/platform/sentinel"
)

// InMemoryPersonStore keeps persons in maps for tests and single-node runs.
type InMemoryPersonStore struct {
	mu      sync.RWMutex
	byID    map[id.PersonID]*models.Person
	byEmail map[string]id.PersonID
}

func NewInMemory() *InMemoryPersonStore {
	return &InMemoryPersonStore{
		byID:    make(map[id.PersonID]*models.Person),
		byEmail: make(map[string]id.PersonID),
	}
}

func (s *InMemoryPersonStore) Create(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := email.Normalize(p.Email)
	if _, exists := s.byEmail[key]; exists {
		return sentinel.ErrConflict
	}
	stored := *p
	s.byID[p.ID] = &stored
	s.byEmail[key] = p.ID
	return nil
}

func (s *InMemoryPersonStore) FindByID(_ context.Context, personID id.PersonID) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[personID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *p
	return &found, nil
}

func (s *InMemoryPersonStore) FindByEmail(_ context.Context, address string) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	personID, ok := s.byEmail[email.Normalize(address)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *s.byID[personID]
	return &found, nil
}

func (s *InMemoryPersonStore) SetActive(_ context.Context, personID id.PersonID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[personID]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.Active = active
	return nil
}

func (s *InMemoryPersonStore) Delete(_ context.Context, personID id.PersonID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[personID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, email.Normalize(p.Email))
	delete(s.byID, personID)
	return nil
}
