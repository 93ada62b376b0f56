package service

import (
	"context"

	"clubhouse/internal/audit"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// AuditPublisher records events without blocking the caller.
type AuditPublisher interface {
	Record(ctx context.Context, event audit.Event)
}
