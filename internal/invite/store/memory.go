package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"clubhouse/internal/invite/models"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/platform/sentinel"
)

// InMemoryInviteStore keys invites by token. MarkUsed is a compare-and-swap
// on the used flag.
type InMemoryInviteStore struct {
	mu      sync.RWMutex
	byToken map[string]*models.Invite
}

func NewInMemory() *InMemoryInviteStore {
	return &InMemoryInviteStore{byToken: make(map[string]*models.Invite)}
}

func (s *InMemoryInviteStore) Create(_ context.Context, inv *models.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byToken[inv.Token]; exists {
		return sentinel.ErrConflict
	}
	s.byToken[inv.Token] = clone(inv)
	return nil
}

func (s *InMemoryInviteStore) FindByToken(_ context.Context, token string) (*models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.byToken[token]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(inv), nil
}

// MarkUsed flips the invite to used. usedBy is nil when the invite is revoked
// rather than redeemed.
func (s *InMemoryInviteStore) MarkUsed(_ context.Context, token string, usedBy *id.PersonID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.byToken[token]
	if !ok {
		return sentinel.ErrNotFound
	}
	if inv.Used {
		return sentinel.ErrAlreadyUsed
	}
	inv.Used = true
	inv.UsedAt = &at
	if usedBy != nil {
		by := *usedBy
		inv.UsedBy = &by
	}
	return nil
}

// Release undoes a MarkUsed by usedBy whose follow-up work failed.
func (s *InMemoryInviteStore) Release(_ context.Context, token string, usedBy id.PersonID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.byToken[token]
	if !ok || !inv.Used || inv.UsedBy == nil || *inv.UsedBy != usedBy {
		return sentinel.ErrInvalidState
	}
	inv.Used = false
	inv.UsedAt = nil
	inv.UsedBy = nil
	return nil
}

func (s *InMemoryInviteStore) ListBySociety(_ context.Context, societyID id.SocietyID) ([]*models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Invite
	for _, inv := range s.byToken {
		if inv.SocietyID == societyID {
			out = append(out, clone(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func clone(inv *models.Invite) *models.Invite {
	c := *inv
	if inv.DepartmentID != nil {
		dept := *inv.DepartmentID
		c.DepartmentID = &dept
	}
	if inv.UsedAt != nil {
		at := *inv.UsedAt
		c.UsedAt = &at
	}
	if inv.UsedBy != nil {
		by := *inv.UsedBy
		c.UsedBy = &by
	}
	return &c
}
