// Package domain holds typed identifiers shared across modules.
//
// Each identifier wraps a UUID so that a PersonID cannot be passed where a
// SocietyID is expected. Parse functions are the trust boundary for IDs that
// arrive from URLs, JSON bodies, or token claims.
package domain

import (
	"github.com/google/uuid"

	dErrors "clubhouse/pkg/domain-errors"
)

type (
	PersonID      uuid.UUID
	CollegeID     uuid.UUID
	SocietyID     uuid.UUID
	DepartmentID  uuid.UUID
	InviteID      uuid.UUID
	MembershipID  uuid.UUID
	ApplicationID uuid.UUID
	PanelID       uuid.UUID
	FeedbackID    uuid.UUID
)

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, kind+" cannot be nil")
	}
	return u, nil
}

func ParsePersonID(s string) (PersonID, error) {
	u, err := parseUUID("person id", s)
	return PersonID(u), err
}

func ParseCollegeID(s string) (CollegeID, error) {
	u, err := parseUUID("college id", s)
	return CollegeID(u), err
}

func ParseSocietyID(s string) (SocietyID, error) {
	u, err := parseUUID("society id", s)
	return SocietyID(u), err
}

func ParseDepartmentID(s string) (DepartmentID, error) {
	u, err := parseUUID("department id", s)
	return DepartmentID(u), err
}

func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID("application id", s)
	return ApplicationID(u), err
}

func ParsePanelID(s string) (PanelID, error) {
	u, err := parseUUID("panel id", s)
	return PanelID(u), err
}

func NewPersonID() PersonID           { return PersonID(uuid.New()) }
func NewCollegeID() CollegeID         { return CollegeID(uuid.New()) }
func NewSocietyID() SocietyID         { return SocietyID(uuid.New()) }
func NewDepartmentID() DepartmentID   { return DepartmentID(uuid.New()) }
func NewInviteID() InviteID           { return InviteID(uuid.New()) }
func NewMembershipID() MembershipID   { return MembershipID(uuid.New()) }
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }
func NewPanelID() PanelID             { return PanelID(uuid.New()) }
func NewFeedbackID() FeedbackID       { return FeedbackID(uuid.New()) }

func (id PersonID) String() string      { return uuid.UUID(id).String() }
func (id CollegeID) String() string     { return uuid.UUID(id).String() }
func (id SocietyID) String() string     { return uuid.UUID(id).String() }
func (id DepartmentID) String() string  { return uuid.UUID(id).String() }
func (id InviteID) String() string      { return uuid.UUID(id).String() }
func (id MembershipID) String() string  { return uuid.UUID(id).String() }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id PanelID) String() string       { return uuid.UUID(id).String() }
func (id FeedbackID) String() string    { return uuid.UUID(id).String() }

func (id PersonID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id CollegeID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id SocietyID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DepartmentID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PanelID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id InviteID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id MembershipID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs serialize as plain UUID strings in JSON.
func (id PersonID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id CollegeID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id SocietyID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id DepartmentID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id InviteID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id MembershipID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id ApplicationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id PanelID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id FeedbackID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }

func (id *PersonID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *SocietyID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *DepartmentID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *CollegeID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *ApplicationID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *PanelID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *InviteID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *MembershipID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *FeedbackID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
