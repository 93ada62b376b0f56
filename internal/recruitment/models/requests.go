package models

import (
	"strings"

	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
)

const (
	minRating       = 1
	maxRating       = 5
	maxAnswers      = 32
	maxAnswerLength = 4000
)

type ApplyRequest struct {
	DepartmentID *id.DepartmentID  `json:"department_id,omitempty"`
	Answers      map[string]string `json:"answers"`
}

func (r *ApplyRequest) Validate() error {
	if len(r.Answers) > maxAnswers {
		return dErrors.New(dErrors.CodeValidation, "too many answers")
	}
	for question, answer := range r.Answers {
		if strings.TrimSpace(question) == "" {
			return dErrors.New(dErrors.CodeValidation, "answer keys must not be blank")
		}
		if len(answer) > maxAnswerLength {
			return dErrors.New(dErrors.CodeValidation, "answer to "+question+" is too long")
		}
	}
	return nil
}

type StatusRequest struct {
	Status string `json:"status"`
}

// Target parses the requested status. Only managers' moves are accepted;
// WITHDRAWN belongs to the applicant.
func (r *StatusRequest) Target() (Status, error) {
	status, err := ParseStatus(strings.ToUpper(strings.TrimSpace(r.Status)))
	if err != nil {
		return "", err
	}
	switch status {
	case StatusShortlisted, StatusSelected, StatusRejected:
		return status, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be SHORTLISTED, SELECTED or REJECTED")
}

type PanelRequest struct {
	Name           string             `json:"name"`
	DepartmentID   *id.DepartmentID   `json:"department_id,omitempty"`
	ApplicationIDs []id.ApplicationID `json:"application_ids"`
	InterviewerIDs []id.PersonID      `json:"interviewer_ids"`
}

func (r *PanelRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *PanelRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "panel name is required")
	}
	if len(r.InterviewerIDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one interviewer is required")
	}
	return nil
}

type FeedbackRequest struct {
	ApplicationID  id.ApplicationID `json:"application_id"`
	Rating         int              `json:"rating"`
	Comments       string           `json:"comments"`
	Recommendation string           `json:"recommendation"`
}

func (r *FeedbackRequest) Normalize() {
	r.Comments = strings.TrimSpace(r.Comments)
	r.Recommendation = strings.ToUpper(strings.TrimSpace(r.Recommendation))
}

func (r *FeedbackRequest) Validate() error {
	if r.ApplicationID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "application_id is required")
	}
	if r.Rating < minRating || r.Rating > maxRating {
		return dErrors.New(dErrors.CodeValidation, "rating must be between 1 and 5")
	}
	if !Recommendation(r.Recommendation).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "recommendation must be REJECT, HOLD or SELECT")
	}
	return nil
}
