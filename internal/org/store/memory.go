package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"clubhouse/internal/org/models"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/platform/sentinel"
)

// InMemoryDirectory holds colleges, societies and departments. Department
// names are unique per society, case-insensitively, matching the Postgres
// constraint.
type InMemoryDirectory struct {
	mu          sync.RWMutex
	colleges    map[id.CollegeID]*models.College
	societies   map[id.SocietyID]*models.Society
	departments map[id.DepartmentID]*models.Department
}

func NewInMemory() *InMemoryDirectory {
	return &InMemoryDirectory{
		colleges:    make(map[id.CollegeID]*models.College),
		societies:   make(map[id.SocietyID]*models.Society),
		departments: make(map[id.DepartmentID]*models.Department),
	}
}

func (d *InMemoryDirectory) CreateCollege(_ context.Context, c *models.College) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := *c
	d.colleges[c.ID] = &copied
	return nil
}

func (d *InMemoryDirectory) FindCollege(_ context.Context, collegeID id.CollegeID) (*models.College, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.colleges[collegeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (d *InMemoryDirectory) CreateSociety(_ context.Context, s *models.Society) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.societies[s.ID] = cloneSociety(s)
	return nil
}

func (d *InMemoryDirectory) FindSociety(_ context.Context, societyID id.SocietyID) (*models.Society, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.societies[societyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneSociety(s), nil
}

func (d *InMemoryDirectory) ListSocieties(_ context.Context, collegeID id.CollegeID) ([]*models.Society, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*models.Society
	for _, s := range d.societies {
		if s.CollegeID == collegeID {
			out = append(out, cloneSociety(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *InMemoryDirectory) SetPresident(_ context.Context, societyID id.SocietyID, personID id.PersonID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.societies[societyID]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.PresidentID = &personID
	return nil
}

func (d *InMemoryDirectory) CreateDepartment(_ context.Context, dept *models.Department) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.departments {
		if existing.SocietyID == dept.SocietyID && strings.EqualFold(existing.Name, dept.Name) {
			return sentinel.ErrConflict
		}
	}
	copied := *dept
	d.departments[dept.ID] = &copied
	return nil
}

func (d *InMemoryDirectory) FindDepartment(_ context.Context, departmentID id.DepartmentID) (*models.Department, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	dept, ok := d.departments[departmentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *dept
	return &copied, nil
}

func (d *InMemoryDirectory) ListDepartments(_ context.Context, societyID id.SocietyID) ([]*models.Department, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*models.Department
	for _, dept := range d.departments {
		if dept.SocietyID == societyID {
			copied := *dept
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func cloneSociety(s *models.Society) *models.Society {
	c := *s
	if s.FacultyCoordinatorID != nil {
		coordinator := *s.FacultyCoordinatorID
		c.FacultyCoordinatorID = &coordinator
	}
	if s.PresidentID != nil {
		president := *s.PresidentID
		c.PresidentID = &president
	}
	return &c
}
