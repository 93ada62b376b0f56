package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clubhouse/internal/invite/models"
	"clubhouse/internal/platform/postgres"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/platform/sentinel"
	"clubhouse/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const inviteColumns = `id, token, kind, email, society_id, department_id, role, expires_at, used, used_at, used_by, issued_by, created_at`

func (s *PostgresStore) Create(ctx context.Context, inv *models.Invite) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO invites (`+inviteColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, uuid.UUID(inv.ID), inv.Token, string(inv.Kind), inv.Email, uuid.UUID(inv.SocietyID),
		nullDepartment(inv.DepartmentID), string(inv.Role), inv.ExpiresAt, inv.Used, inv.UsedAt,
		nullPerson(inv.UsedBy), uuid.UUID(inv.IssuedBy), inv.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create invite: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByToken(ctx context.Context, token string) (*models.Invite, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE token = $1`, token)
	inv, err := scanInvite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find invite: %w", err)
	}
	return inv, nil
}

// MarkUsed is a conditional update; of two concurrent callers only one sees
// a row affected.
func (s *PostgresStore) MarkUsed(ctx context.Context, token string, usedBy *id.PersonID, at time.Time) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE invites SET used = TRUE, used_at = $2, used_by = $3 WHERE token = $1 AND NOT used`,
		token, at, nullPerson(usedBy))
	if err != nil {
		return fmt.Errorf("mark invite used: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	return s.missingOrUsed(ctx, token)
}

func (s *PostgresStore) Release(ctx context.Context, token string, usedBy id.PersonID) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE invites SET used = FALSE, used_at = NULL, used_by = NULL WHERE token = $1 AND used AND used_by = $2`,
		token, uuid.UUID(usedBy))
	if err != nil {
		return fmt.Errorf("release invite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) ListBySociety(ctx context.Context, societyID id.SocietyID) ([]*models.Invite, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE society_id = $1 ORDER BY created_at DESC`,
		uuid.UUID(societyID))
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	var out []*models.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *PostgresStore) missingOrUsed(ctx context.Context, token string) error {
	var exists bool
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM invites WHERE token = $1)`, token).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check invite: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrAlreadyUsed
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvite(row scanner) (*models.Invite, error) {
	var (
		inv                         models.Invite
		inviteID, society, issuedBy uuid.UUID
		department, usedBy          uuid.NullUUID
		kind, role                  string
		usedAt                      sql.NullTime
	)
	err := row.Scan(&inviteID, &inv.Token, &kind, &inv.Email, &society, &department, &role,
		&inv.ExpiresAt, &inv.Used, &usedAt, &usedBy, &issuedBy, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	inv.ID = id.InviteID(inviteID)
	inv.Kind = models.Kind(kind)
	inv.SocietyID = id.SocietyID(society)
	inv.Role = id.Role(role)
	inv.IssuedBy = id.PersonID(issuedBy)
	if department.Valid {
		dept := id.DepartmentID(department.UUID)
		inv.DepartmentID = &dept
	}
	if usedAt.Valid {
		at := usedAt.Time
		inv.UsedAt = &at
	}
	if usedBy.Valid {
		by := id.PersonID(usedBy.UUID)
		inv.UsedBy = &by
	}
	return &inv, nil
}

func nullDepartment(departmentID *id.DepartmentID) uuid.NullUUID {
	if departmentID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*departmentID), Valid: true}
}

func nullPerson(personID *id.PersonID) uuid.NullUUID {
	if personID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*personID), Valid: true}
}
