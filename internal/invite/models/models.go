package models

import (
	"strings"
	"time"

	membershipModels "clubhouse/internal/membership/models"
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/email"
)

// Kind distinguishes invites bound to one recipient from open links.
type Kind string

const (
	KindTargeted Kind = "targeted"
	KindLink     Kind = "link"
)

// LinkEmailSuffix marks the placeholder address stored on link invites.
// Any address with this suffix is treated as a link invite.
const LinkEmailSuffix = "@invite-link.local"

// LinkPlaceholder is the address recorded on a link invite.
func LinkPlaceholder(token string) string {
	return "link-" + token + LinkEmailSuffix
}

// KindFromEmail classifies an address by the placeholder suffix alone.
func KindFromEmail(address string) Kind {
	if strings.HasSuffix(strings.ToLower(strings.TrimSpace(address)), LinkEmailSuffix) {
		return KindLink
	}
	return KindTargeted
}

// Invite grants a single membership transition. It is redeemable at most
// once and only strictly before ExpiresAt.
type Invite struct {
	ID           id.InviteID      `json:"id"`
	Token        string           `json:"token"`
	Kind         Kind             `json:"kind"`
	Email        string           `json:"email"`
	SocietyID    id.SocietyID     `json:"society_id"`
	DepartmentID *id.DepartmentID `json:"department_id,omitempty"`
	Role         id.Role          `json:"role"`
	ExpiresAt    time.Time        `json:"expires_at"`
	Used         bool             `json:"used"`
	UsedAt       *time.Time       `json:"used_at,omitempty"`
	UsedBy       *id.PersonID     `json:"used_by,omitempty"`
	IssuedBy     id.PersonID      `json:"issued_by"`
	CreatedAt    time.Time        `json:"created_at"`
}

// IsLink honours both the explicit kind and the placeholder address, so rows
// written before the kind column existed classify correctly.
func (i *Invite) IsLink() bool {
	return i.Kind == KindLink || KindFromEmail(i.Email) == KindLink
}

func (i *Invite) IsExpiredAt(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// AcceptsEmail reports whether address may redeem the invite. Link invites
// accept anyone.
func (i *Invite) AcceptsEmail(address string) bool {
	return i.IsLink() || email.Equal(i.Email, address)
}

// CheckRedeemable validates the invite for a redemption by address at now.
func (i *Invite) CheckRedeemable(address string, now time.Time) error {
	if i.Used {
		return dErrors.New(dErrors.CodeConflict, "invite is invalid or already used")
	}
	if i.IsExpiredAt(now) {
		return dErrors.New(dErrors.CodeExpired, "invite has expired")
	}
	if !i.AcceptsEmail(address) {
		return dErrors.New(dErrors.CodeForbidden, "invite was issued to a different email")
	}
	return nil
}

// MembershipTarget maps the invite onto a membership slot. PRESIDENT is a
// display role and lands as CORE.
func (i *Invite) MembershipTarget() membershipModels.Target {
	role := i.Role
	if role == id.RolePresident {
		role = id.RoleCore
	}
	return membershipModels.Target{SocietyID: i.SocietyID, DepartmentID: i.DepartmentID, Role: role}
}

// Recipient is the real recipient address, empty for link invites.
func (i *Invite) Recipient() string {
	if i.IsLink() {
		return ""
	}
	return i.Email
}
