package service

import (
	"context"

	"clubhouse/internal/audit"
	"clubhouse/internal/authz"
	membershipModels "clubhouse/internal/membership/models"
	id "clubhouse/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// StandingResolver reports the caller's authority within a society.
type StandingResolver interface {
	Resolve(ctx context.Context, personID id.PersonID, societyID id.SocietyID) (authz.Standing, error)
}

// HeadLookup derives a department head from the membership ledger.
type HeadLookup interface {
	ActiveHeadOf(ctx context.Context, departmentID id.DepartmentID) (*membershipModels.Membership, error)
}

// AuditPublisher records events without blocking the caller.
type AuditPublisher interface {
	Record(ctx context.Context, event audit.Event)
}
