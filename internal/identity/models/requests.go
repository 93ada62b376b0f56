package models

import (
	"strings"

	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/email"
)

type ChallengeRequest struct {
	Email string `json:"email"`
}

func (r *ChallengeRequest) Normalize() { r.Email = email.Normalize(r.Email) }

func (r *ChallengeRequest) Validate() error {
	if !email.Valid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "valid email is required")
	}
	return nil
}

type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (r *VerifyRequest) Normalize() {
	r.Email = email.Normalize(r.Email)
	r.Code = strings.TrimSpace(r.Code)
}

func (r *VerifyRequest) Validate() error {
	if !email.Valid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "valid email is required")
	}
	if r.Code == "" {
		return dErrors.New(dErrors.CodeValidation, "code is required")
	}
	return nil
}

// RegisterRequest is shared by the admin, faculty and student flows.
type RegisterRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = email.Normalize(r.Email)
	r.Code = strings.TrimSpace(r.Code)
	r.Name = strings.TrimSpace(r.Name)
}

func (r *RegisterRequest) Validate() error {
	if !email.Valid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "valid email is required")
	}
	if r.Code == "" {
		return dErrors.New(dErrors.CodeValidation, "code is required")
	}
	if len(r.Password) < 8 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() { r.Email = email.Normalize(r.Email) }

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}

type EmailListRequest struct {
	Emails []string `json:"emails"`
}

func (r *EmailListRequest) Validate() error {
	if len(r.Emails) == 0 {
		return dErrors.New(dErrors.CodeValidation, "emails must not be empty")
	}
	for _, e := range r.Emails {
		if !email.Valid(email.Normalize(e)) {
			return dErrors.New(dErrors.CodeValidation, "invalid email: "+e)
		}
	}
	return nil
}
