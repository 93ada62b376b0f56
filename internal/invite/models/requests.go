package models

import (
	"strings"
	"time"

	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/email"
)

// IssueRequest describes a new invite. An empty Email, or one carrying the
// link placeholder suffix, issues a link invite.
type IssueRequest struct {
	Email        string           `json:"email"`
	DepartmentID *id.DepartmentID `json:"department_id,omitempty"`
	Role         string           `json:"role"`
	ExpiresAt    *time.Time       `json:"expires_at,omitempty"`
}

func (r *IssueRequest) Normalize() {
	r.Email = email.Normalize(r.Email)
	r.Role = strings.ToUpper(strings.TrimSpace(r.Role))
	if KindFromEmail(r.Email) == KindLink {
		r.Email = ""
	}
}

func (r *IssueRequest) Kind() Kind {
	if r.Email == "" {
		return KindLink
	}
	return KindTargeted
}

func (r *IssueRequest) Validate(now time.Time) error {
	if r.Email != "" && !email.Valid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	role, err := id.ParseRole(r.Role)
	if err != nil {
		return err
	}
	if !role.IsInviteRole() {
		return dErrors.New(dErrors.CodeValidation, "invite role must be CORE, HEAD, MEMBER or PRESIDENT")
	}
	if r.DepartmentID != nil && r.DepartmentID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "department_id is invalid")
	}
	if r.ExpiresAt != nil && !now.Before(*r.ExpiresAt) {
		return dErrors.New(dErrors.CodeValidation, "expires_at must be in the future")
	}
	return nil
}

// SignupRequest creates an account and redeems an invite in one step. Code
// is the email verification code, required for link invites.
type SignupRequest struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

func (r *SignupRequest) Normalize() {
	r.Token = strings.TrimSpace(r.Token)
	r.Email = email.Normalize(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	r.Code = strings.TrimSpace(r.Code)
}

func (r *SignupRequest) Validate() error {
	if r.Token == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	if !email.Valid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "valid email is required")
	}
	if len(r.Password) < 8 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	return nil
}
