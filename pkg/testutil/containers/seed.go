//go:build integration

package containers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	id "clubhouse/pkg/domain"
)

// SeedPerson inserts a minimal person row so foreign keys resolve.
func (p *PostgresContainer) SeedPerson(t *testing.T, email string) id.PersonID {
	t.Helper()
	personID := id.NewPersonID()
	_, err := p.DB.ExecContext(context.Background(), `
		INSERT INTO persons (id, email, name, password_hash, role_hint, active, created_at)
		VALUES ($1, $2, $2, 'x', 'STUDENT', TRUE, $3)
	`, uuid.UUID(personID), email, time.Now())
	if err != nil {
		t.Fatalf("seed person: %v", err)
	}
	return personID
}

// SeedSociety inserts a society under a fresh college.
func (p *PostgresContainer) SeedSociety(t *testing.T, name string) id.SocietyID {
	t.Helper()
	ctx := context.Background()
	collegeID, societyID := id.NewCollegeID(), id.NewSocietyID()
	if _, err := p.DB.ExecContext(ctx,
		`INSERT INTO colleges (id, name, admin_email, created_at) VALUES ($1, $2, 'admin@uni.edu', $3)`,
		uuid.UUID(collegeID), name+" college", time.Now()); err != nil {
		t.Fatalf("seed college: %v", err)
	}
	if _, err := p.DB.ExecContext(ctx,
		`INSERT INTO societies (id, college_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(societyID), uuid.UUID(collegeID), name, time.Now()); err != nil {
		t.Fatalf("seed society: %v", err)
	}
	return societyID
}

func (p *PostgresContainer) SeedDepartment(t *testing.T, societyID id.SocietyID, name string) id.DepartmentID {
	t.Helper()
	departmentID := id.NewDepartmentID()
	if _, err := p.DB.ExecContext(context.Background(),
		`INSERT INTO departments (id, society_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(departmentID), uuid.UUID(societyID), name, time.Now()); err != nil {
		t.Fatalf("seed department: %v", err)
	}
	return departmentID
}
