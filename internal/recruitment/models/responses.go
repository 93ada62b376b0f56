package models

import (
	membershipModels "clubhouse/internal/membership/models"
	id "clubhouse/pkg/domain"
)

// ChoiceResult is the outcome of a final society choice. Rejected lists the
// competing offers that were declined.
type ChoiceResult struct {
	Application *Application                 `json:"application"`
	Membership  *membershipModels.Membership `json:"membership"`
	Rejected    []id.ApplicationID           `json:"rejected"`
}
