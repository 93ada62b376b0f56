package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"clubhouse/internal/membership/models"
	"clubhouse/internal/platform/postgres"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/platform/sentinel"
	"clubhouse/pkg/platform/tx"
)

// PostgresStore persists memberships. The partial unique index on
// memberships(person_id) WHERE active backs the one-active invariant.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const membershipColumns = `id, person_id, society_id, department_id, role, active, started_at, ended_at`

func (s *PostgresStore) FindActive(ctx context.Context, personID id.PersonID) (*models.Membership, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE person_id = $1 AND active`,
		uuid.UUID(personID))
	m, err := scanMembership(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find active membership: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) Deactivate(ctx context.Context, membershipID id.MembershipID, endedAt time.Time) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE memberships SET active = FALSE, ended_at = $2 WHERE id = $1 AND active`,
		uuid.UUID(membershipID), endedAt)
	if err != nil {
		return fmt.Errorf("deactivate membership: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, m *models.Membership) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO memberships (`+membershipColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(m.ID), uuid.UUID(m.PersonID), uuid.UUID(m.SocietyID), nullDepartment(m.DepartmentID),
		string(m.Role), m.Active, m.StartedAt, m.EndedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Membership, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.SocietyID != nil {
		args = append(args, uuid.UUID(*filter.SocietyID))
		clauses = append(clauses, fmt.Sprintf("society_id = $%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, uuid.UUID(*filter.DepartmentID))
		clauses = append(clauses, fmt.Sprintf("department_id = $%d", len(args)))
	}
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		clauses = append(clauses, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.ActiveOnly {
		clauses = append(clauses, "active")
	}
	query := `SELECT ` + membershipColumns + ` FROM memberships`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY started_at"
	return s.query(ctx, query, args...)
}

func (s *PostgresStore) ListByPerson(ctx context.Context, personID id.PersonID) ([]*models.Membership, error) {
	return s.query(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE person_id = $1 ORDER BY started_at`,
		uuid.UUID(personID))
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Membership, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var out []*models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// PostgresTx serializes membership transitions per person by locking the
// person row for the duration of the transaction.
type PostgresTx struct {
	db *sql.DB
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db}
}

func (t *PostgresTx) RunInTx(ctx context.Context, personID id.PersonID, fn func(ctx context.Context) error) error {
	return tx.Run(ctx, t.db, func(ctx context.Context) error {
		var locked uuid.UUID
		err := tx.Exec(ctx, t.db).QueryRowContext(ctx,
			`SELECT id FROM persons WHERE id = $1 FOR UPDATE`, uuid.UUID(personID)).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock person: %w", err)
		}
		return fn(ctx)
	})
}

// Atomic reports that a failed transition is rolled back as a whole.
func (t *PostgresTx) Atomic() bool { return true }

type scanner interface {
	Scan(dest ...any) error
}

func scanMembership(row scanner) (*models.Membership, error) {
	var (
		m                             models.Membership
		membershipID, person, society uuid.UUID
		department                    uuid.NullUUID
		role                          string
		endedAt                       sql.NullTime
	)
	if err := row.Scan(&membershipID, &person, &society, &department, &role, &m.Active, &m.StartedAt, &endedAt); err != nil {
		return nil, err
	}
	m.ID = id.MembershipID(membershipID)
	m.PersonID = id.PersonID(person)
	m.SocietyID = id.SocietyID(society)
	m.Role = id.Role(role)
	if department.Valid {
		dept := id.DepartmentID(department.UUID)
		m.DepartmentID = &dept
	}
	if endedAt.Valid {
		ended := endedAt.Time
		m.EndedAt = &ended
	}
	return &m, nil
}

func nullDepartment(departmentID *id.DepartmentID) uuid.NullUUID {
	if departmentID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*departmentID), Valid: true}
}
