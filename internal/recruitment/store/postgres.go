package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"clubhouse/internal/platform/postgres"
	"clubhouse/internal/recruitment/models"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/platform/sentinel"
	"clubhouse/pkg/platform/tx"
)

// PostgresStore persists the recruitment pipeline. The live-application and
// feedback-triple rules are unique indexes, so concurrent submissions cannot
// both pass.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const applicationColumns = `id, person_id, society_id, department_id, status, answers, created_at, updated_at`

func (s *PostgresStore) CreateApplication(ctx context.Context, app *models.Application) error {
	answers, err := json.Marshal(app.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	_, err = tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(app.ID), uuid.UUID(app.PersonID), uuid.UUID(app.SocietyID), nullDepartment(app.DepartmentID),
		string(app.Status), answers, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindApplication(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, uuid.UUID(applicationID))
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find application: %w", err)
	}
	return app, nil
}

func (s *PostgresStore) TransitionApplication(ctx context.Context, applicationID id.ApplicationID, from, to models.Status, at time.Time) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE applications SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		uuid.UUID(applicationID), string(from), string(to), at)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("transition application: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	var exists bool
	err = tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, uuid.UUID(applicationID)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check application: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

func (s *PostgresStore) ListApplicationsByPerson(ctx context.Context, personID id.PersonID) ([]*models.Application, error) {
	return s.queryApplications(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE person_id = $1 ORDER BY created_at DESC`,
		uuid.UUID(personID))
}

func (s *PostgresStore) ListApplicationsBySociety(ctx context.Context, societyID id.SocietyID, status *models.Status) ([]*models.Application, error) {
	if status == nil {
		return s.queryApplications(ctx,
			`SELECT `+applicationColumns+` FROM applications WHERE society_id = $1 ORDER BY created_at`,
			uuid.UUID(societyID))
	}
	return s.queryApplications(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE society_id = $1 AND status = $2 ORDER BY created_at`,
		uuid.UUID(societyID), string(*status))
}

func (s *PostgresStore) queryApplications(ctx context.Context, query string, args ...any) ([]*models.Application, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

const panelColumns = `id, society_id, department_id, name, application_ids, interviewer_ids, created_by, created_at`

func (s *PostgresStore) CreatePanel(ctx context.Context, panel *models.Panel) error {
	applications := make([]string, len(panel.ApplicationIDs))
	for i, a := range panel.ApplicationIDs {
		applications[i] = a.String()
	}
	interviewers := make([]string, len(panel.InterviewerIDs))
	for i, p := range panel.InterviewerIDs {
		interviewers[i] = p.String()
	}
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO interview_panels (`+panelColumns+`)
		VALUES ($1, $2, $3, $4, $5::uuid[], $6::uuid[], $7, $8)
	`, uuid.UUID(panel.ID), uuid.UUID(panel.SocietyID), nullDepartment(panel.DepartmentID), panel.Name,
		pq.Array(applications), pq.Array(interviewers), uuid.UUID(panel.CreatedBy), panel.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create panel: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindPanel(ctx context.Context, panelID id.PanelID) (*models.Panel, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+panelColumns+` FROM interview_panels WHERE id = $1`, uuid.UUID(panelID))
	panel, err := scanPanel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find panel: %w", err)
	}
	return panel, nil
}

func (s *PostgresStore) ListPanels(ctx context.Context, societyID id.SocietyID) ([]*models.Panel, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+panelColumns+` FROM interview_panels WHERE society_id = $1 ORDER BY created_at DESC`,
		uuid.UUID(societyID))
	if err != nil {
		return nil, fmt.Errorf("list panels: %w", err)
	}
	defer rows.Close()

	var out []*models.Panel
	for rows.Next() {
		panel, err := scanPanel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan panel: %w", err)
		}
		out = append(out, panel)
	}
	return out, rows.Err()
}

const feedbackColumns = `id, panel_id, interviewer_id, application_id, rating, comments, recommendation, created_at`

func (s *PostgresStore) CreateFeedback(ctx context.Context, fb *models.Feedback) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO interview_feedback (`+feedbackColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(fb.ID), uuid.UUID(fb.PanelID), uuid.UUID(fb.InterviewerID), uuid.UUID(fb.ApplicationID),
		fb.Rating, fb.Comments, string(fb.Recommendation), fb.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListFeedback(ctx context.Context, applicationID id.ApplicationID) ([]*models.Feedback, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+feedbackColumns+` FROM interview_feedback WHERE application_id = $1 ORDER BY created_at`,
		uuid.UUID(applicationID))
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []*models.Feedback
	for rows.Next() {
		var (
			fb                                       models.Feedback
			feedbackID, panel, interviewer, applicID uuid.UUID
			recommendation                           string
		)
		if err := rows.Scan(&feedbackID, &panel, &interviewer, &applicID, &fb.Rating, &fb.Comments,
			&recommendation, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		fb.ID = id.FeedbackID(feedbackID)
		fb.PanelID = id.PanelID(panel)
		fb.InterviewerID = id.PersonID(interviewer)
		fb.ApplicationID = id.ApplicationID(applicID)
		fb.Recommendation = models.Recommendation(recommendation)
		out = append(out, &fb)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(row scanner) (*models.Application, error) {
	var (
		app                    models.Application
		appID, person, society uuid.UUID
		department             uuid.NullUUID
		status                 string
		answers                []byte
	)
	err := row.Scan(&appID, &person, &society, &department, &status, &answers, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return nil, err
	}
	app.ID = id.ApplicationID(appID)
	app.PersonID = id.PersonID(person)
	app.SocietyID = id.SocietyID(society)
	app.Status = models.Status(status)
	if department.Valid {
		dept := id.DepartmentID(department.UUID)
		app.DepartmentID = &dept
	}
	if err := json.Unmarshal(answers, &app.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return &app, nil
}

func scanPanel(row scanner) (*models.Panel, error) {
	var (
		panel                       models.Panel
		panelID, society, createdBy uuid.UUID
		department                  uuid.NullUUID
		applications, interviewers  []string
	)
	err := row.Scan(&panelID, &society, &department, &panel.Name,
		pq.Array(&applications), pq.Array(&interviewers), &createdBy, &panel.CreatedAt)
	if err != nil {
		return nil, err
	}
	panel.ID = id.PanelID(panelID)
	panel.SocietyID = id.SocietyID(society)
	panel.CreatedBy = id.PersonID(createdBy)
	if department.Valid {
		dept := id.DepartmentID(department.UUID)
		panel.DepartmentID = &dept
	}
	for _, raw := range applications {
		u, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse application id: %w", err)
		}
		panel.ApplicationIDs = append(panel.ApplicationIDs, id.ApplicationID(u))
	}
	for _, raw := range interviewers {
		u, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse interviewer id: %w", err)
		}
		panel.InterviewerIDs = append(panel.InterviewerIDs, id.PersonID(u))
	}
	return &panel, nil
}

func nullDepartment(departmentID *id.DepartmentID) uuid.NullUUID {
	if departmentID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*departmentID), Valid: true}
}
