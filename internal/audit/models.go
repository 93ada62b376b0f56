package audit

import (
	"time"

	id "clubhouse/pkg/domain"
)

// Action names a state-mutating operation recorded in the audit trail.
type Action string

const (
	// Identity
	ActionChallengeRequested Action = "challenge_requested"
	ActionChallengeVerified  Action = "challenge_verified"
	ActionUserRegistered     Action = "user_registered"
	ActionUserRolledBack     Action = "user_registration_rolled_back"
	ActionConfigUpdated      Action = "platform_config_updated"

	// Invites
	ActionInviteIssued   Action = "invite_issued"
	ActionInviteRedeemed Action = "invite_redeemed"
	ActionInviteRevoked  Action = "invite_revoked"

	// Membership
	ActionMembershipStarted Action = "membership_started"
	ActionMembershipEnded   Action = "membership_ended"

	// Recruitment
	ActionApplicationSubmitted     Action = "application_submitted"
	ActionApplicationStatusChanged Action = "application_status_changed"
	ActionApplicationWithdrawn     Action = "application_withdrawn"
	ActionFinalSocietyChosen       Action = "final_society_chosen"
	ActionPanelCreated             Action = "panel_created"
	ActionFeedbackSubmitted        Action = "feedback_submitted"

	// Organisation
	ActionCollegeCreated    Action = "college_created"
	ActionSocietyCreated    Action = "society_created"
	ActionDepartmentCreated Action = "department_created"
)

// Target models.
const (
	ModelPerson      = "person"
	ModelChallenge   = "challenge"
	ModelConfig      = "platform_config"
	ModelInvite      = "invite"
	ModelMembership  = "membership"
	ModelApplication = "application"
	ModelPanel       = "interview_panel"
	ModelFeedback    = "interview_feedback"
	ModelCollege     = "college"
	ModelSociety     = "society"
	ModelDepartment  = "department"
)

// Event is one audit record. It is transport-agnostic so sinks can fan out.
type Event struct {
	ActorID     id.PersonID
	ActorRole   string
	Action      Action
	TargetModel string
	TargetID    string
	Metadata    map[string]any
	RequestID   string
	Timestamp   time.Time
}
