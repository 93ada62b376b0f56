package authz

import (
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
)

// EvaluateInvite decides whether the holder of standing may issue an invite
// for role, optionally scoped to departmentID. Pure function, no I/O.
//
// Rule priority:
//  1. The faculty coordinator may issue any invite role.
//  2. CORE may issue HEAD and MEMBER invites.
//  3. The HEAD of a department may issue MEMBER invites for that department.
func EvaluateInvite(standing Standing, role id.Role, departmentID *id.DepartmentID) error {
	if !role.IsInviteRole() {
		return dErrors.New(dErrors.CodeValidation, "invite role must be CORE, HEAD, MEMBER or PRESIDENT")
	}
	if standing.Coordinator {
		return nil
	}
	switch role {
	case id.RoleHead:
		if standing.IsCore() {
			return nil
		}
	case id.RoleMember:
		if standing.IsCore() {
			return nil
		}
		if departmentID != nil && standing.IsHeadOf(*departmentID) {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeForbidden, "not allowed to issue "+role.String()+" invites for this society")
}

// RequireManager fails with Forbidden unless standing may manage the society,
// or the department when one is given.
func RequireManager(standing Standing, departmentID *id.DepartmentID) error {
	if standing.CanManageDepartment(departmentID) {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "requires coordinator, core or department head standing")
}
