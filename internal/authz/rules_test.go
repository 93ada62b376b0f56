package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	membershipModels "clubhouse/internal/membership/models"
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
)

func TestEvaluateInvite(t *testing.T) {
	society := id.NewSocietyID()
	dept, otherDept := id.NewDepartmentID(), id.NewDepartmentID()

	holding := func(role id.Role, departmentID *id.DepartmentID) Standing {
		return Standing{Membership: &membershipModels.Membership{
			SocietyID: society, DepartmentID: departmentID, Role: role, Active: true,
		}}
	}
	coordinator := Standing{Coordinator: true}
	core := holding(id.RoleCore, nil)
	head := holding(id.RoleHead, &dept)
	member := holding(id.RoleMember, &dept)
	outsider := Standing{}

	cases := []struct {
		name     string
		standing Standing
		role     id.Role
		dept     *id.DepartmentID
		want     dErrors.Code
	}{
		{"coordinator issues president", coordinator, id.RolePresident, nil, ""},
		{"coordinator issues core", coordinator, id.RoleCore, nil, ""},
		{"core issues head", core, id.RoleHead, &dept, ""},
		{"core issues member", core, id.RoleMember, nil, ""},
		{"core cannot issue core", core, id.RoleCore, nil, dErrors.CodeForbidden},
		{"core cannot issue president", core, id.RolePresident, nil, dErrors.CodeForbidden},
		{"head issues member in own department", head, id.RoleMember, &dept, ""},
		{"head cannot issue member elsewhere", head, id.RoleMember, &otherDept, dErrors.CodeForbidden},
		{"head cannot issue society-wide member", head, id.RoleMember, nil, dErrors.CodeForbidden},
		{"head cannot issue head", head, id.RoleHead, &dept, dErrors.CodeForbidden},
		{"member cannot issue", member, id.RoleMember, &dept, dErrors.CodeForbidden},
		{"outsider cannot issue", outsider, id.RoleMember, nil, dErrors.CodeForbidden},
		{"student is not an invite role", coordinator, id.RoleStudent, nil, dErrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := EvaluateInvite(tc.standing, tc.role, tc.dept)
			if tc.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, tc.want), "got %v", err)
		})
	}
}

func TestRequireManager(t *testing.T) {
	dept := id.NewDepartmentID()
	head := Standing{Membership: &membershipModels.Membership{DepartmentID: &dept, Role: id.RoleHead, Active: true}}

	assert.NoError(t, RequireManager(Standing{Coordinator: true}, nil))
	assert.NoError(t, RequireManager(head, &dept))
	assert.True(t, dErrors.HasCode(RequireManager(head, nil), dErrors.CodeForbidden))
	assert.True(t, dErrors.HasCode(RequireManager(Standing{}, &dept), dErrors.CodeForbidden))
}
