package service

import (
	"context"
	"time"

	"clubhouse/internal/audit"
	"clubhouse/internal/mailer"
	id "clubhouse/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// TokenIssuer mints access tokens after registration or login.
type TokenIssuer interface {
	IssueAccessToken(personID id.PersonID, email, roleHint string) (string, time.Time, error)
}

// Mailer delivers OTP codes. Failures are logged, never returned.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// AuditPublisher records events without blocking the caller.
type AuditPublisher interface {
	Record(ctx context.Context, event audit.Event)
}
