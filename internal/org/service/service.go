package service

import (
	"context"
	"errors"
	"log/slog"

	"clubhouse/internal/audit"
	"clubhouse/internal/org/models"
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/platform/sentinel"
	"clubhouse/pkg/requestcontext"
)

// Directory persists colleges, societies and departments.
type Directory interface {
	CreateCollege(ctx context.Context, c *models.College) error
	FindCollege(ctx context.Context, collegeID id.CollegeID) (*models.College, error)
	CreateSociety(ctx context.Context, s *models.Society) error
	FindSociety(ctx context.Context, societyID id.SocietyID) (*models.Society, error)
	ListSocieties(ctx context.Context, collegeID id.CollegeID) ([]*models.Society, error)
	SetPresident(ctx context.Context, societyID id.SocietyID, personID id.PersonID) error
	CreateDepartment(ctx context.Context, d *models.Department) error
	FindDepartment(ctx context.Context, departmentID id.DepartmentID) (*models.Department, error)
	ListDepartments(ctx context.Context, societyID id.SocietyID) ([]*models.Department, error)
}

// Service manages the organisation directory. It carries ownership checks
// only; membership state lives in the membership ledger.
type Service struct {
	directory      Directory
	standing       StandingResolver
	heads          HeadLookup
	auditPublisher AuditPublisher
	logger         *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func New(directory Directory, standing StandingResolver, heads HeadLookup, opts ...Option) *Service {
	s := &Service{
		directory: directory,
		standing:  standing,
		heads:     heads,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateCollege(ctx context.Context, actor id.PersonID, req *models.CreateCollegeRequest) (*models.College, error) {
	college, err := models.NewCollege(req.Name, req.AdminEmail, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.directory.CreateCollege(ctx, college); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create college")
	}
	s.logAudit(ctx, actor, audit.ActionCollegeCreated, audit.ModelCollege, college.ID.String(), map[string]any{
		"name": college.Name,
	})
	return college, nil
}

// CreateSociety registers a society under a college with the caller as its
// faculty coordinator.
func (s *Service) CreateSociety(ctx context.Context, actor id.PersonID, req *models.CreateSocietyRequest) (*models.Society, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.directory.FindCollege(ctx, req.CollegeID); err != nil {
		return nil, translateErr(err, "college")
	}
	society, err := models.NewSociety(req.CollegeID, req.Name, actor, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.directory.CreateSociety(ctx, society); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create society")
	}
	s.logAudit(ctx, actor, audit.ActionSocietyCreated, audit.ModelSociety, society.ID.String(), map[string]any{
		"college_id": society.CollegeID.String(),
		"name":       society.Name,
	})
	return society, nil
}

// CreateDepartment requires coordinator or CORE standing in the society.
func (s *Service) CreateDepartment(ctx context.Context, actor id.PersonID, societyID id.SocietyID, req *models.CreateDepartmentRequest) (*models.Department, error) {
	standing, err := s.standing.Resolve(ctx, actor, societyID)
	if err != nil {
		return nil, err
	}
	if !standing.CanManageSociety() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the coordinator or core members can add departments")
	}
	dept, err := models.NewDepartment(societyID, req.Name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.directory.CreateDepartment(ctx, dept); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "department name already exists in this society")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create department")
	}
	s.logAudit(ctx, actor, audit.ActionDepartmentCreated, audit.ModelDepartment, dept.ID.String(), map[string]any{
		"society_id": societyID.String(),
		"name":       dept.Name,
	})
	return dept, nil
}

func (s *Service) GetSociety(ctx context.Context, societyID id.SocietyID) (*models.Society, error) {
	society, err := s.directory.FindSociety(ctx, societyID)
	if err != nil {
		return nil, translateErr(err, "society")
	}
	return society, nil
}

func (s *Service) ListSocieties(ctx context.Context, collegeID id.CollegeID) ([]*models.Society, error) {
	list, err := s.directory.ListSocieties(ctx, collegeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list societies")
	}
	return list, nil
}

func (s *Service) GetDepartment(ctx context.Context, departmentID id.DepartmentID) (*models.Department, error) {
	dept, err := s.directory.FindDepartment(ctx, departmentID)
	if err != nil {
		return nil, translateErr(err, "department")
	}
	return dept, nil
}

func (s *Service) ListDepartments(ctx context.Context, societyID id.SocietyID) ([]*models.Department, error) {
	if _, err := s.GetSociety(ctx, societyID); err != nil {
		return nil, err
	}
	list, err := s.directory.ListDepartments(ctx, societyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list departments")
	}
	return list, nil
}

// SetPresident records personID as the society's display president.
func (s *Service) SetPresident(ctx context.Context, societyID id.SocietyID, personID id.PersonID) error {
	if err := s.directory.SetPresident(ctx, societyID, personID); err != nil {
		return translateErr(err, "society")
	}
	return nil
}

// DepartmentHead reads the department's current head from the membership
// ledger.
func (s *Service) DepartmentHead(ctx context.Context, departmentID id.DepartmentID) (*models.DepartmentHead, error) {
	dept, err := s.GetDepartment(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	head, err := s.heads.ActiveHeadOf(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	result := &models.DepartmentHead{Department: dept}
	if head != nil {
		result.PersonID = &head.PersonID
	}
	return result, nil
}

func translateErr(err error, entity string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, entity+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+entity)
}

func (s *Service) logAudit(ctx context.Context, actor id.PersonID, action audit.Action, model, targetID string, metadata map[string]any) {
	if s.auditPublisher == nil {
		return
	}
	s.auditPublisher.Record(ctx, audit.Event{
		ActorID:     actor,
		ActorRole:   requestcontext.RoleHint(ctx),
		Action:      action,
		TargetModel: model,
		TargetID:    targetID,
		Metadata:    metadata,
	})
}
