package models

import (
	"time"
)

// EndpointClass groups routes that share a request budget.
type EndpointClass string

const (
	// ClassAuth covers unauthenticated credential routes: OTP request and
	// verify, registration, login, invite lookup and invite signup.
	ClassAuth EndpointClass = "auth"
	// ClassAPI covers every authenticated route.
	ClassAPI EndpointClass = "api"
)

func (c EndpointClass) IsValid() bool {
	return c == ClassAuth || c == ClassAPI
}

// KeyPrefix distinguishes the identity a bucket counts against.
type KeyPrefix string

const (
	KeyPrefixIP     KeyPrefix = "ip"
	KeyPrefixPerson KeyPrefix = "person"
)

// Limit is a sliding-window budget.
type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
}

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, set only when denied
}

// NewKey builds the bucket key "rl:<prefix>:<identifier>:<class>".
func NewKey(prefix KeyPrefix, identifier string, class EndpointClass) string {
	return "rl:" + string(prefix) + ":" + SanitizeKeySegment(identifier) + ":" + string(class)
}
