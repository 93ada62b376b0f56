package platformconfig

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"clubhouse/internal/identity/models"
	pstrings "clubhouse/pkg/platform/strings"
)

// PostgresStore keeps the configuration in a single row (id = 1). The row
// is created lazily with empty lists on first access.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context) (*models.PlatformConfig, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO platform_config (id) VALUES (1) ON CONFLICT (id) DO NOTHING`); err != nil {
		return nil, fmt.Errorf("ensure platform config: %w", err)
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT admin_emails, faculty_emails, updated_at FROM platform_config WHERE id = 1`)
	return scanConfig(row)
}

func (s *PostgresStore) AddAdminEmails(ctx context.Context, emails []string, now time.Time) (*models.PlatformConfig, error) {
	return s.appendColumn(ctx, "admin_emails", emails, now)
}

func (s *PostgresStore) AddFacultyEmails(ctx context.Context, emails []string, now time.Time) (*models.PlatformConfig, error) {
	return s.appendColumn(ctx, "faculty_emails", emails, now)
}

// appendColumn merges additions into the column in one statement so
// concurrent admins cannot overwrite each other's additions. First-seen
// order is preserved.
func (s *PostgresStore) appendColumn(ctx context.Context, column string, emails []string, now time.Time) (*models.PlatformConfig, error) {
	additions := pstrings.DedupeAndTrimLower(emails)
	query := fmt.Sprintf(`
		INSERT INTO platform_config (id, %[1]s, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET
			%[1]s = ARRAY(
				SELECT e FROM unnest(platform_config.%[1]s || EXCLUDED.%[1]s) WITH ORDINALITY AS t(e, n)
				GROUP BY e
				ORDER BY min(n)
			),
			updated_at = EXCLUDED.updated_at
		RETURNING admin_emails, faculty_emails, updated_at
	`, column)
	row := s.db.QueryRowContext(ctx, query, pq.Array(additions), now)
	cfg, err := scanConfig(row)
	if err != nil {
		return nil, fmt.Errorf("append %s: %w", column, err)
	}
	return cfg, nil
}

func scanConfig(row *sql.Row) (*models.PlatformConfig, error) {
	var cfg models.PlatformConfig
	if err := row.Scan(pq.Array(&cfg.AdminEmails), pq.Array(&cfg.FacultyEmails), &cfg.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan platform config: %w", err)
	}
	if cfg.AdminEmails == nil {
		cfg.AdminEmails = []string{}
	}
	if cfg.FacultyEmails == nil {
		cfg.FacultyEmails = []string{}
	}
	return &cfg, nil
}
