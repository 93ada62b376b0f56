package platformconfig

import (
	"context"
	"sync"
	"time"

	"clubhouse/internal/identity/models"
	pstrings "clubhouse/pkg/platform/strings"
)

// InMemoryConfigStore holds the singleton configuration record. Appends run
// under the mutex so concurrent additions are never lost.
type InMemoryConfigStore struct {
	mu     sync.Mutex
	config models.PlatformConfig
}

func NewInMemory() *InMemoryConfigStore {
	return &InMemoryConfigStore{}
}

func (s *InMemoryConfigStore) Get(_ context.Context) (*models.PlatformConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), nil
}

func (s *InMemoryConfigStore) AddAdminEmails(_ context.Context, emails []string, now time.Time) (*models.PlatformConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.AdminEmails = pstrings.Union(s.config.AdminEmails, emails)
	s.config.UpdatedAt = now
	return s.snapshotLocked(), nil
}

func (s *InMemoryConfigStore) AddFacultyEmails(_ context.Context, emails []string, now time.Time) (*models.PlatformConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.FacultyEmails = pstrings.Union(s.config.FacultyEmails, emails)
	s.config.UpdatedAt = now
	return s.snapshotLocked(), nil
}

func (s *InMemoryConfigStore) snapshotLocked() *models.PlatformConfig {
	return &models.PlatformConfig{
		AdminEmails:   append([]string{}, s.config.AdminEmails...),
		FacultyEmails: append([]string{}, s.config.FacultyEmails...),
		UpdatedAt:     s.config.UpdatedAt,
	}
}
