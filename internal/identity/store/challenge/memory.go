package challenge

import (
	"context"
	"sync"

	"clubhouse/internal/identity/models"
	"clubhouse/pkg/email"
	"clubhouse/pkg/platform/sentinel"
)

// InMemoryChallengeStore indexes challenges by code (globally unique among
// stored challenges) and by email (newest last).
type InMemoryChallengeStore struct {
	mu      sync.Mutex
	byCode  map[string]*models.Challenge
	byEmail map[string][]*models.Challenge
}

func NewInMemory() *InMemoryChallengeStore {
	return &InMemoryChallengeStore{
		byCode:  make(map[string]*models.Challenge),
		byEmail: make(map[string][]*models.Challenge),
	}
}

// Create stores c. Challenges that expired before c was created are swept
// first, which stands in for the storage-level TTL.
func (s *InMemoryChallengeStore) Create(_ context.Context, c *models.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(c)

	if _, taken := s.byCode[c.Code]; taken {
		return sentinel.ErrConflict
	}
	stored := *c
	stored.Email = email.Normalize(c.Email)
	s.byCode[stored.Code] = &stored
	s.byEmail[stored.Email] = append(s.byEmail[stored.Email], &stored)
	return nil
}

func (s *InMemoryChallengeStore) Latest(_ context.Context, address string) (*models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.byEmail[email.Normalize(address)]
	if len(list) == 0 {
		return nil, sentinel.ErrNotFound
	}
	latest := *list[len(list)-1]
	return &latest, nil
}

// Consume deletes the challenge for address with the given code. A second
// consume of the same challenge returns ErrNotFound.
func (s *InMemoryChallengeStore) Consume(_ context.Context, address, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := email.Normalize(address)
	c, ok := s.byCode[code]
	if !ok || c.Email != key {
		return sentinel.ErrNotFound
	}
	delete(s.byCode, code)
	list := s.byEmail[key]
	for i, candidate := range list {
		if candidate == c {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(s.byEmail, key)
	} else {
		s.byEmail[key] = list
	}
	return nil
}

func (s *InMemoryChallengeStore) sweepLocked(incoming *models.Challenge) {
	for code, c := range s.byCode {
		if !c.ExpiresAt.After(incoming.CreatedAt) {
			delete(s.byCode, code)
		}
	}
	for key, list := range s.byEmail {
		kept := list[:0]
		for _, c := range list {
			if c.ExpiresAt.After(incoming.CreatedAt) {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			delete(s.byEmail, key)
		} else {
			s.byEmail[key] = kept
		}
	}
}
