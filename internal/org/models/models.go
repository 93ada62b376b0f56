package models

import (
	"strings"
	"time"

	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/email"
)

const maxNameLength = 128

// College groups societies under one administrator.
type College struct {
	ID         id.CollegeID `json:"id"`
	Name       string       `json:"name"`
	AdminEmail string       `json:"admin_email"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Society is a student organisation. FacultyCoordinatorID is the faculty
// member who created it; PresidentID is a display role set by redeeming a
// PRESIDENT invite and carries no authority of its own.
type Society struct {
	ID                   id.SocietyID `json:"id"`
	CollegeID            id.CollegeID `json:"college_id"`
	Name                 string       `json:"name"`
	FacultyCoordinatorID *id.PersonID `json:"faculty_coordinator_id,omitempty"`
	PresidentID          *id.PersonID `json:"president_id,omitempty"`
	CreatedAt            time.Time    `json:"created_at"`
}

func (s *Society) IsCoordinator(personID id.PersonID) bool {
	return s.FacultyCoordinatorID != nil && *s.FacultyCoordinatorID == personID
}

// Department belongs to exactly one society. Its head is not stored; it is
// read from the active HEAD membership scoped to the department.
type Department struct {
	ID        id.DepartmentID `json:"id"`
	SocietyID id.SocietyID    `json:"society_id"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewCollege(name, adminEmail string, now time.Time) (*College, error) {
	name, err := validName(name)
	if err != nil {
		return nil, err
	}
	adminEmail = email.Normalize(adminEmail)
	if !email.Valid(adminEmail) {
		return nil, dErrors.New(dErrors.CodeValidation, "valid admin email is required")
	}
	return &College{ID: id.NewCollegeID(), Name: name, AdminEmail: adminEmail, CreatedAt: now}, nil
}

func NewSociety(collegeID id.CollegeID, name string, coordinator id.PersonID, now time.Time) (*Society, error) {
	if collegeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "college is required")
	}
	name, err := validName(name)
	if err != nil {
		return nil, err
	}
	return &Society{
		ID:                   id.NewSocietyID(),
		CollegeID:            collegeID,
		Name:                 name,
		FacultyCoordinatorID: &coordinator,
		CreatedAt:            now,
	}, nil
}

func NewDepartment(societyID id.SocietyID, name string, now time.Time) (*Department, error) {
	name, err := validName(name)
	if err != nil {
		return nil, err
	}
	return &Department{ID: id.NewDepartmentID(), SocietyID: societyID, Name: name, CreatedAt: now}, nil
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(name) > maxNameLength {
		return "", dErrors.New(dErrors.CodeValidation, "name must be 128 characters or less")
	}
	return name, nil
}
