package domain

import (
	"strings"

	dErrors "clubhouse/pkg/domain-errors"
)

// Role is one of the nine platform roles. A Person carries one as a
// registration hint; Memberships and Invites restrict it further.
type Role string

const (
	RolePlatformAdmin   Role = "PLATFORM_ADMIN"
	RoleUniversityAdmin Role = "UNIVERSITY_ADMIN"
	RoleCollegeAdmin    Role = "COLLEGE_ADMIN"
	RoleFaculty         Role = "FACULTY"
	RolePresident       Role = "PRESIDENT"
	RoleCore            Role = "CORE"
	RoleHead            Role = "HEAD"
	RoleMember          Role = "MEMBER"
	RoleStudent         Role = "STUDENT"
)

var allRoles = []Role{
	RolePlatformAdmin, RoleUniversityAdmin, RoleCollegeAdmin, RoleFaculty,
	RolePresident, RoleCore, RoleHead, RoleMember, RoleStudent,
}

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// IsMembershipRole reports whether r can occupy a Membership slot.
func (r Role) IsMembershipRole() bool {
	return r == RoleCore || r == RoleHead || r == RoleMember
}

// IsInviteRole reports whether r can be granted by an Invite.
func (r Role) IsInviteRole() bool {
	return r.IsMembershipRole() || r == RolePresident
}

// Rank orders membership roles for roster views: leadership first.
func (r Role) Rank() int {
	switch r {
	case RoleCore:
		return 0
	case RoleHead:
		return 1
	case RoleMember:
		return 2
	default:
		return 3
	}
}

// ParseRole normalizes and validates a role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid role: "+s)
	}
	return r, nil
}
