package service

import (
	"context"

	"clubhouse/internal/audit"
	"clubhouse/internal/identity/models"
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/email"
	pstrings "clubhouse/pkg/platform/strings"
	"clubhouse/pkg/requestcontext"
)

func (s *Service) GetConfig(ctx context.Context) (*models.PlatformConfig, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load platform config")
	}
	return cfg, nil
}

func (s *Service) IsAdminEligible(ctx context.Context, address string) (bool, error) {
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return false, err
	}
	return cfg.IsAdminEligible(address), nil
}

func (s *Service) IsFacultyEligible(ctx context.Context, address string) (bool, error) {
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return false, err
	}
	return cfg.IsFacultyEligible(address), nil
}

func (s *Service) AddAdminEmails(ctx context.Context, actor id.PersonID, req *models.EmailListRequest) (*models.PlatformConfig, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cfg, err := s.config.AddAdminEmails(ctx, pstrings.DedupeAndTrimLower(req.Emails), requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update admin emails")
	}
	s.auditConfig(ctx, actor, "admin_emails", req.Emails)
	return cfg, nil
}

func (s *Service) AddFacultyEmails(ctx context.Context, actor id.PersonID, req *models.EmailListRequest) (*models.PlatformConfig, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cfg, err := s.config.AddFacultyEmails(ctx, pstrings.DedupeAndTrimLower(req.Emails), requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update faculty emails")
	}
	s.auditConfig(ctx, actor, "faculty_emails", req.Emails)
	return cfg, nil
}

// Bootstrap seeds the admin allow-list at startup. Invalid entries are
// skipped with a warning.
func (s *Service) Bootstrap(ctx context.Context, adminEmails []string) error {
	valid := make([]string, 0, len(adminEmails))
	for _, e := range pstrings.DedupeAndTrimLower(adminEmails) {
		if !email.Valid(e) {
			s.logger.WarnContext(ctx, "skipping invalid bootstrap admin email", "email", e)
			continue
		}
		valid = append(valid, e)
	}
	if len(valid) == 0 {
		return nil
	}
	if _, err := s.config.AddAdminEmails(ctx, valid, requestcontext.Now(ctx)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed admin emails")
	}
	s.logger.InfoContext(ctx, "seeded platform admin allow-list", "count", len(valid))
	return nil
}

func (s *Service) auditConfig(ctx context.Context, actor id.PersonID, list string, added []string) {
	s.logAudit(ctx, audit.Event{
		ActorID:     actor,
		ActorRole:   requestcontext.RoleHint(ctx),
		Action:      audit.ActionConfigUpdated,
		TargetModel: audit.ModelConfig,
		TargetID:    "1",
		Metadata:    map[string]any{"list": list, "added": len(added)},
	})
}
