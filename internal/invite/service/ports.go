package service

import (
	"context"

	"clubhouse/internal/audit"
	"clubhouse/internal/mailer"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// Mailer delivers invitation emails. Failures are logged, never returned.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// AuditPublisher records events without blocking the caller.
type AuditPublisher interface {
	Record(ctx context.Context, event audit.Event)
}
