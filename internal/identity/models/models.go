package models

import (
	"time"

	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/email"
	pstrings "clubhouse/pkg/platform/strings"
)

// Person is an identity record. RoleHint is fixed at registration and is
// never consulted for society standing.
type Person struct {
	ID           id.PersonID `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	PasswordHash string      `json:"-"`
	RoleHint     id.Role     `json:"role"`
	Active       bool        `json:"active"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewPerson enforces construction invariants. The email is normalized and
// the name is derived from it when blank.
func NewPerson(personID id.PersonID, address, name, passwordHash string, role id.Role, now time.Time) (*Person, error) {
	address = email.Normalize(address)
	if !email.Valid(address) {
		return nil, dErrors.New(dErrors.CodeValidation, "valid email is required")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password hash is required")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid role")
	}
	if name == "" {
		name = email.DeriveNameFromEmail(address)
	}
	return &Person{
		ID:           personID,
		Email:        address,
		Name:         name,
		PasswordHash: passwordHash,
		RoleHint:     role,
		Active:       true,
		CreatedAt:    now,
	}, nil
}

// Challenge is a one-time code proving control of an email address.
type Challenge struct {
	Email     string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpiredAt treats the expiry instant itself as expired.
func (c *Challenge) IsExpiredAt(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Matches compares the stored code against a submitted one.
func (c *Challenge) Matches(code string) bool {
	return c.Code == code
}

// PlatformConfig is the singleton holding registration allow-lists.
type PlatformConfig struct {
	AdminEmails   []string  `json:"admin_emails"`
	FacultyEmails []string  `json:"faculty_emails"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (c *PlatformConfig) IsAdminEligible(address string) bool {
	return pstrings.ContainsLower(c.AdminEmails, email.Normalize(address))
}

func (c *PlatformConfig) IsFacultyEligible(address string) bool {
	return pstrings.ContainsLower(c.FacultyEmails, email.Normalize(address))
}
