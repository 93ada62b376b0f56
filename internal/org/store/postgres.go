package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"clubhouse/internal/org/models"
	"clubhouse/internal/platform/postgres"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/platform/sentinel"
	"clubhouse/pkg/platform/tx"
)

// PostgresDirectory persists the organisation directory.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) CreateCollege(ctx context.Context, c *models.College) error {
	_, err := tx.Exec(ctx, d.db).ExecContext(ctx,
		`INSERT INTO colleges (id, name, admin_email, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(c.ID), c.Name, c.AdminEmail, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create college: %w", err)
	}
	return nil
}

func (d *PostgresDirectory) FindCollege(ctx context.Context, collegeID id.CollegeID) (*models.College, error) {
	var (
		c   models.College
		raw uuid.UUID
	)
	err := tx.Exec(ctx, d.db).QueryRowContext(ctx,
		`SELECT id, name, admin_email, created_at FROM colleges WHERE id = $1`, uuid.UUID(collegeID)).
		Scan(&raw, &c.Name, &c.AdminEmail, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find college: %w", err)
	}
	c.ID = id.CollegeID(raw)
	return &c, nil
}

const societyColumns = `id, college_id, name, faculty_coordinator_id, president_id, created_at`

func (d *PostgresDirectory) CreateSociety(ctx context.Context, s *models.Society) error {
	_, err := tx.Exec(ctx, d.db).ExecContext(ctx,
		`INSERT INTO societies (`+societyColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(s.ID), uuid.UUID(s.CollegeID), s.Name, nullPerson(s.FacultyCoordinatorID), nullPerson(s.PresidentID), s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create society: %w", err)
	}
	return nil
}

func (d *PostgresDirectory) FindSociety(ctx context.Context, societyID id.SocietyID) (*models.Society, error) {
	row := tx.Exec(ctx, d.db).QueryRowContext(ctx,
		`SELECT `+societyColumns+` FROM societies WHERE id = $1`, uuid.UUID(societyID))
	s, err := scanSociety(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find society: %w", err)
	}
	return s, nil
}

func (d *PostgresDirectory) ListSocieties(ctx context.Context, collegeID id.CollegeID) ([]*models.Society, error) {
	rows, err := tx.Exec(ctx, d.db).QueryContext(ctx,
		`SELECT `+societyColumns+` FROM societies WHERE college_id = $1 ORDER BY name`, uuid.UUID(collegeID))
	if err != nil {
		return nil, fmt.Errorf("list societies: %w", err)
	}
	defer rows.Close()

	var out []*models.Society
	for rows.Next() {
		s, err := scanSociety(rows)
		if err != nil {
			return nil, fmt.Errorf("scan society: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (d *PostgresDirectory) SetPresident(ctx context.Context, societyID id.SocietyID, personID id.PersonID) error {
	res, err := tx.Exec(ctx, d.db).ExecContext(ctx,
		`UPDATE societies SET president_id = $2 WHERE id = $1`, uuid.UUID(societyID), uuid.UUID(personID))
	if err != nil {
		return fmt.Errorf("set president: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (d *PostgresDirectory) CreateDepartment(ctx context.Context, dept *models.Department) error {
	_, err := tx.Exec(ctx, d.db).ExecContext(ctx,
		`INSERT INTO departments (id, society_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(dept.ID), uuid.UUID(dept.SocietyID), dept.Name, dept.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

func (d *PostgresDirectory) FindDepartment(ctx context.Context, departmentID id.DepartmentID) (*models.Department, error) {
	row := tx.Exec(ctx, d.db).QueryRowContext(ctx,
		`SELECT id, society_id, name, created_at FROM departments WHERE id = $1`, uuid.UUID(departmentID))
	dept, err := scanDepartment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find department: %w", err)
	}
	return dept, nil
}

func (d *PostgresDirectory) ListDepartments(ctx context.Context, societyID id.SocietyID) ([]*models.Department, error) {
	rows, err := tx.Exec(ctx, d.db).QueryContext(ctx,
		`SELECT id, society_id, name, created_at FROM departments WHERE society_id = $1 ORDER BY name`,
		uuid.UUID(societyID))
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	var out []*models.Department
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		out = append(out, dept)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSociety(row scanner) (*models.Society, error) {
	var (
		s                      models.Society
		societyID, collegeID   uuid.UUID
		coordinator, president uuid.NullUUID
	)
	if err := row.Scan(&societyID, &collegeID, &s.Name, &coordinator, &president, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.ID = id.SocietyID(societyID)
	s.CollegeID = id.CollegeID(collegeID)
	s.FacultyCoordinatorID = personPtr(coordinator)
	s.PresidentID = personPtr(president)
	return &s, nil
}

func scanDepartment(row scanner) (*models.Department, error) {
	var (
		dept                  models.Department
		departmentID, society uuid.UUID
	)
	if err := row.Scan(&departmentID, &society, &dept.Name, &dept.CreatedAt); err != nil {
		return nil, err
	}
	dept.ID = id.DepartmentID(departmentID)
	dept.SocietyID = id.SocietyID(society)
	return &dept, nil
}

func nullPerson(personID *id.PersonID) uuid.NullUUID {
	if personID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*personID), Valid: true}
}

func personPtr(v uuid.NullUUID) *id.PersonID {
	if !v.Valid {
		return nil
	}
	personID := id.PersonID(v.UUID)
	return &personID
}
