package person

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"clubhouse/internal/identity/models"
	"clubhouse/internal/platform/postgres"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/platform/sentinel"
	"clubhouse/pkg/platform/tx"
)

// PostgresStore persists persons. Email uniqueness is enforced by the
// lower(email) unique index.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const personColumns = `id, email, name, password_hash, role_hint, active, created_at`

func (s *PostgresStore) Create(ctx context.Context, p *models.Person) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO persons (`+personColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(p.ID), p.Email, p.Name, p.PasswordHash, string(p.RoleHint), p.Active, p.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id = $1`, uuid.UUID(personID))
	return scanPerson(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, address string) (*models.Person, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE lower(email) = lower($1)`, address)
	return scanPerson(row)
}

func (s *PostgresStore) SetActive(ctx context.Context, personID id.PersonID, active bool) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE persons SET active = $2 WHERE id = $1`, uuid.UUID(personID), active)
	if err != nil {
		return fmt.Errorf("set person active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Delete removes a person nothing else references yet.
func (s *PostgresStore) Delete(ctx context.Context, personID id.PersonID) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, uuid.UUID(personID))
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanPerson(row *sql.Row) (*models.Person, error) {
	var (
		p        models.Person
		personID uuid.UUID
		role     string
	)
	err := row.Scan(&personID, &p.Email, &p.Name, &p.PasswordHash, &role, &p.Active, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan person: %w", err)
	}
	p.ID = id.PersonID(personID)
	p.RoleHint = id.Role(role)
	return &p, nil
}
