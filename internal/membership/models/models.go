package models

import (
	"sort"
	"time"

	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
)

// Membership is the authoritative link between a person and a society.
// At most one membership per person is active at any time.
type Membership struct {
	ID           id.MembershipID  `json:"id"`
	PersonID     id.PersonID      `json:"person_id"`
	SocietyID    id.SocietyID     `json:"society_id"`
	DepartmentID *id.DepartmentID `json:"department_id,omitempty"`
	Role         id.Role          `json:"role"`
	Active       bool             `json:"active"`
	StartedAt    time.Time        `json:"started_at"`
	EndedAt      *time.Time       `json:"ended_at,omitempty"`
}

// Target names the slot a membership transition moves a person into.
type Target struct {
	SocietyID    id.SocietyID
	DepartmentID *id.DepartmentID
	Role         id.Role
}

func (t Target) Validate() error {
	if t.SocietyID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "society is required")
	}
	if t.DepartmentID != nil && t.DepartmentID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "department id is invalid")
	}
	if !t.Role.IsMembershipRole() {
		return dErrors.New(dErrors.CodeValidation, "membership role must be CORE, HEAD or MEMBER")
	}
	return nil
}

// NewMembership builds an active membership starting at now.
func NewMembership(personID id.PersonID, target Target, now time.Time) (*Membership, error) {
	if personID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "person is required")
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	return &Membership{
		ID:           id.NewMembershipID(),
		PersonID:     personID,
		SocietyID:    target.SocietyID,
		DepartmentID: target.DepartmentID,
		Role:         target.Role,
		Active:       true,
		StartedAt:    now,
	}, nil
}

// Holds reports whether m already occupies exactly the target slot.
func (m *Membership) Holds(target Target) bool {
	return m.Active &&
		m.SocietyID == target.SocietyID &&
		m.Role == target.Role &&
		sameDepartment(m.DepartmentID, target.DepartmentID)
}

// End deactivates m at now.
func (m *Membership) End(now time.Time) {
	m.Active = false
	m.EndedAt = &now
}

func (m *Membership) InDepartment(departmentID id.DepartmentID) bool {
	return m.DepartmentID != nil && *m.DepartmentID == departmentID
}

func sameDepartment(a, b *id.DepartmentID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Filter selects memberships for roster views. Exactly one of SocietyID or
// DepartmentID should be set.
type Filter struct {
	SocietyID    *id.SocietyID
	DepartmentID *id.DepartmentID
	Role         id.Role
	ActiveOnly   bool
}

func (f Filter) Matches(m *Membership) bool {
	if f.ActiveOnly && !m.Active {
		return false
	}
	if f.SocietyID != nil && m.SocietyID != *f.SocietyID {
		return false
	}
	if f.DepartmentID != nil && !m.InDepartment(*f.DepartmentID) {
		return false
	}
	if f.Role != "" && m.Role != f.Role {
		return false
	}
	return true
}

// SortRoster orders leadership before rank-and-file, then by start time.
func SortRoster(list []*Membership) {
	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := list[i].Role.Rank(), list[j].Role.Rank()
		if ri != rj {
			return ri < rj
		}
		return list[i].StartedAt.Before(list[j].StartedAt)
	})
}

// SortNewestFirst orders a person's history by start time, most recent first.
func SortNewestFirst(list []*Membership) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].StartedAt.After(list[j].StartedAt)
	})
}
