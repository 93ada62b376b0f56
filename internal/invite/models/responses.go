package models

import (
	"time"

	identityModels "clubhouse/internal/identity/models"
	membershipModels "clubhouse/internal/membership/models"
	id "clubhouse/pkg/domain"
)

type IssueResult struct {
	Invite    *Invite `json:"invite"`
	AcceptURL string  `json:"accept_url"`
}

// Details is what a prospective member sees before accepting.
type Details struct {
	Kind           Kind             `json:"kind"`
	Role           id.Role          `json:"role"`
	SocietyID      id.SocietyID     `json:"society_id"`
	SocietyName    string           `json:"society_name"`
	DepartmentID   *id.DepartmentID `json:"department_id,omitempty"`
	DepartmentName string           `json:"department_name,omitempty"`
	Email          string           `json:"email,omitempty"`
	ExpiresAt      time.Time        `json:"expires_at"`
}

type RedeemResult struct {
	Invite     *Invite                      `json:"invite"`
	Membership *membershipModels.Membership `json:"membership"`
}

type SignupResult struct {
	Person      *identityModels.Person       `json:"user"`
	AccessToken string                       `json:"token,omitempty"`
	ExpiresAt   time.Time                    `json:"expires_at"`
	Membership  *membershipModels.Membership `json:"membership"`
}
