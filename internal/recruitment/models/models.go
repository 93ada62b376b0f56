package models

import (
	"slices"
	"time"

	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
)

// Status is an application's position in the recruitment pipeline.
type Status string

const (
	StatusApplied     Status = "APPLIED"
	StatusShortlisted Status = "SHORTLISTED"
	StatusSelected    Status = "SELECTED"
	StatusRejected    Status = "REJECTED"
	StatusWithdrawn   Status = "WITHDRAWN"
)

// transitions lists the forward moves out of each status. REJECTED and
// WITHDRAWN have none.
var transitions = map[Status][]Status{
	StatusApplied:     {StatusShortlisted, StatusRejected, StatusWithdrawn},
	StatusShortlisted: {StatusSelected, StatusRejected, StatusWithdrawn},
	StatusSelected:    {StatusRejected, StatusWithdrawn},
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusApplied, StatusShortlisted, StatusSelected, StatusRejected, StatusWithdrawn:
		return st, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown application status: "+s)
}

// IsLive reports whether the application still counts against the one
// open application per society rule.
func (s Status) IsLive() bool {
	return s == StatusApplied || s == StatusShortlisted
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

type Application struct {
	ID           id.ApplicationID  `json:"id"`
	PersonID     id.PersonID       `json:"person_id"`
	SocietyID    id.SocietyID      `json:"society_id"`
	DepartmentID *id.DepartmentID  `json:"department_id,omitempty"`
	Status       Status            `json:"status"`
	Answers      map[string]string `json:"answers,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func NewApplication(personID id.PersonID, societyID id.SocietyID, departmentID *id.DepartmentID, answers map[string]string, now time.Time) *Application {
	if answers == nil {
		answers = map[string]string{}
	}
	return &Application{
		ID:           id.NewApplicationID(),
		PersonID:     personID,
		SocietyID:    societyID,
		DepartmentID: departmentID,
		Status:       StatusApplied,
		Answers:      answers,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Recommendation is an interviewer's verdict on one application.
type Recommendation string

const (
	RecommendReject Recommendation = "REJECT"
	RecommendHold   Recommendation = "HOLD"
	RecommendSelect Recommendation = "SELECT"
)

func (r Recommendation) IsValid() bool {
	return r == RecommendReject || r == RecommendHold || r == RecommendSelect
}

// Panel groups applications with the people who interview them.
type Panel struct {
	ID             id.PanelID         `json:"id"`
	SocietyID      id.SocietyID       `json:"society_id"`
	DepartmentID   *id.DepartmentID   `json:"department_id,omitempty"`
	Name           string             `json:"name"`
	ApplicationIDs []id.ApplicationID `json:"application_ids"`
	InterviewerIDs []id.PersonID      `json:"interviewer_ids"`
	CreatedBy      id.PersonID        `json:"created_by"`
	CreatedAt      time.Time          `json:"created_at"`
}

func (p *Panel) HasInterviewer(personID id.PersonID) bool {
	return slices.Contains(p.InterviewerIDs, personID)
}

func (p *Panel) Includes(applicationID id.ApplicationID) bool {
	return slices.Contains(p.ApplicationIDs, applicationID)
}

// Feedback is append-only: one record per panel, interviewer and
// application.
type Feedback struct {
	ID             id.FeedbackID    `json:"id"`
	PanelID        id.PanelID       `json:"panel_id"`
	InterviewerID  id.PersonID      `json:"interviewer_id"`
	ApplicationID  id.ApplicationID `json:"application_id"`
	Rating         int              `json:"rating"`
	Comments       string           `json:"comments,omitempty"`
	Recommendation Recommendation   `json:"recommendation"`
	CreatedAt      time.Time        `json:"created_at"`
}
