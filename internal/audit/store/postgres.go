package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"clubhouse/internal/audit"
	id "clubhouse/pkg/domain"
)

// PostgresStore writes audit events to audit_events. It never joins the
// caller's transaction: audit writes commit independently of the mutation
// they describe.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event audit.Event) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	if event.Metadata == nil {
		metadata = []byte("{}")
	}
	var actor any
	if !event.ActorID.IsNil() {
		actor = uuid.UUID(event.ActorID)
	}
	query := `
		INSERT INTO audit_events (id, actor_id, actor_role, action, target_model, target_id, metadata, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.New(),
		actor,
		event.ActorRole,
		string(event.Action),
		event.TargetModel,
		event.TargetID,
		metadata,
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByTarget(ctx context.Context, model, targetID string) ([]audit.Event, error) {
	query := `
		SELECT actor_id, actor_role, action, target_model, target_id, metadata, request_id, created_at
		FROM audit_events
		WHERE target_model = $1 AND target_id = $2
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, model, targetID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var (
			e        audit.Event
			actor    uuid.NullUUID
			action   string
			metadata []byte
		)
		if err := rows.Scan(&actor, &e.ActorRole, &action, &e.TargetModel, &e.TargetID, &metadata, &e.RequestID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if actor.Valid {
			e.ActorID = id.PersonID(actor.UUID)
		}
		e.Action = audit.Action(action)
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return nil, fmt.Errorf("decode audit metadata: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
