package models

import (
	"strings"

	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
)

type CreateCollegeRequest struct {
	Name       string `json:"name"`
	AdminEmail string `json:"admin_email"`
}

type CreateSocietyRequest struct {
	CollegeID id.CollegeID `json:"college_id"`
	Name      string       `json:"name"`
}

func (r *CreateSocietyRequest) Validate() error {
	if r.CollegeID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "college_id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

type CreateDepartmentRequest struct {
	Name string `json:"name"`
}

// DepartmentHead is the derived head of a department; PersonID is nil when
// no one currently holds an active HEAD membership there.
type DepartmentHead struct {
	Department *Department  `json:"department"`
	PersonID   *id.PersonID `json:"person_id"`
}
