// Package authz derives what a person may do inside a society from the
// membership ledger and the organisation directory. The role hint carried by
// access tokens is never consulted here.
package authz

import (
	"context"
	"errors"

	membershipModels "clubhouse/internal/membership/models"
	orgModels "clubhouse/internal/org/models"
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/platform/sentinel"
)

// Standing is a snapshot of one person's authority within one society.
type Standing struct {
	PersonID    id.PersonID
	Society     *orgModels.Society
	Coordinator bool
	// Membership is the person's active membership when it belongs to this
	// society, nil otherwise.
	Membership *membershipModels.Membership
}

func (s Standing) IsCore() bool {
	return s.Membership != nil && s.Membership.Role == id.RoleCore
}

func (s Standing) IsHeadOf(departmentID id.DepartmentID) bool {
	return s.Membership != nil && s.Membership.Role == id.RoleHead && s.Membership.InDepartment(departmentID)
}

// CanManageSociety holds for the faculty coordinator and CORE members.
func (s Standing) CanManageSociety() bool {
	return s.Coordinator || s.IsCore()
}

// CanManageDepartment extends CanManageSociety to the head of departmentID.
func (s Standing) CanManageDepartment(departmentID *id.DepartmentID) bool {
	if s.CanManageSociety() {
		return true
	}
	return departmentID != nil && s.IsHeadOf(*departmentID)
}

type SocietyFinder interface {
	FindSociety(ctx context.Context, societyID id.SocietyID) (*orgModels.Society, error)
}

type MembershipLookup interface {
	GetActive(ctx context.Context, personID id.PersonID) (*membershipModels.Membership, error)
}

// Resolver loads Standing snapshots.
type Resolver struct {
	societies   SocietyFinder
	memberships MembershipLookup
}

func NewResolver(societies SocietyFinder, memberships MembershipLookup) *Resolver {
	return &Resolver{societies: societies, memberships: memberships}
}

// Resolve returns personID's standing in societyID. It fails with NotFound
// when the society does not exist.
func (r *Resolver) Resolve(ctx context.Context, personID id.PersonID, societyID id.SocietyID) (Standing, error) {
	society, err := r.societies.FindSociety(ctx, societyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Standing{}, dErrors.New(dErrors.CodeNotFound, "society not found")
		}
		return Standing{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load society")
	}
	standing := Standing{
		PersonID:    personID,
		Society:     society,
		Coordinator: society.IsCoordinator(personID),
	}
	active, err := r.memberships.GetActive(ctx, personID)
	if err != nil {
		return Standing{}, err
	}
	if active != nil && active.SocietyID == societyID {
		standing.Membership = active
	}
	return standing, nil
}
