package service

import (
	"context"
	"errors"

	"clubhouse/internal/audit"
	"clubhouse/internal/identity/models"
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/platform/sentinel"
	"clubhouse/pkg/requestcontext"
	"clubhouse/pkg/secrets"
)

type eligibilityGate func(cfg *models.PlatformConfig, email string) bool

// RegisterAdmin registers a platform admin listed in the admin allow-list.
func (s *Service) RegisterAdmin(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResult, error) {
	return s.register(ctx, req, id.RolePlatformAdmin, (*models.PlatformConfig).IsAdminEligible)
}

// RegisterFaculty registers a faculty member listed in the faculty allow-list.
func (s *Service) RegisterFaculty(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResult, error) {
	return s.register(ctx, req, id.RoleFaculty, (*models.PlatformConfig).IsFacultyEligible)
}

// RegisterStudent registers any address that proves control via OTP.
func (s *Service) RegisterStudent(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResult, error) {
	return s.register(ctx, req, id.RoleStudent, nil)
}

// register consumes the challenge before the eligibility gate runs, so a
// rejected registration still spends the code.
func (s *Service) register(ctx context.Context, req *models.RegisterRequest, role id.Role, gate eligibilityGate) (*models.RegisterResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.RedeemChallenge(ctx, req.Email, req.Code); err != nil {
		return nil, err
	}

	if gate != nil {
		cfg, err := s.config.Get(ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load platform config")
		}
		if !gate(cfg, req.Email) {
			return nil, dErrors.New(dErrors.CodeForbidden, "email is not approved for "+string(role)+" registration")
		}
	}

	person, err := s.createPerson(ctx, req.Email, req.Name, req.Password, role)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.Event{
		ActorID:     person.ID,
		ActorRole:   string(role),
		Action:      audit.ActionUserRegistered,
		TargetModel: audit.ModelPerson,
		TargetID:    person.ID.String(),
		Metadata:    map[string]any{"role": string(role)},
	})
	return s.session(person)
}

// CreateInvitedPerson creates a student account on behalf of an invite
// signup. The caller has already proven control of the address.
func (s *Service) CreateInvitedPerson(ctx context.Context, address, name, password string) (*models.Person, error) {
	if len(password) < 8 {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	person, err := s.createPerson(ctx, address, name, password, id.RoleStudent)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.Event{
		ActorID:     person.ID,
		ActorRole:   string(id.RoleStudent),
		Action:      audit.ActionUserRegistered,
		TargetModel: audit.ModelPerson,
		TargetID:    person.ID.String(),
		Metadata:    map[string]any{"role": string(id.RoleStudent), "via": "invite"},
	})
	return person, nil
}

// DiscardInvitedPerson removes an account created by CreateInvitedPerson
// whose invite could not be applied, so the address can sign up again.
func (s *Service) DiscardInvitedPerson(ctx context.Context, personID id.PersonID) error {
	if err := s.persons.Delete(ctx, personID); err != nil {
		return translatePersonErr(err)
	}
	s.logAudit(ctx, audit.Event{
		ActorID:     personID,
		ActorRole:   string(id.RoleStudent),
		Action:      audit.ActionUserRolledBack,
		TargetModel: audit.ModelPerson,
		TargetID:    personID.String(),
		Metadata:    map[string]any{"via": "invite"},
	})
	return nil
}

// EnsureUnregistered fails with Conflict when address already has an account.
func (s *Service) EnsureUnregistered(ctx context.Context, address string) error {
	_, err := s.persons.FindByEmail(ctx, address)
	switch {
	case err == nil:
		return dErrors.New(dErrors.CodeConflict, "User already exists")
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up person")
	}
}

func (s *Service) createPerson(ctx context.Context, address, name, password string, role id.Role) (*models.Person, error) {
	hash, err := secrets.HashPasswordCost(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	person, err := models.NewPerson(id.NewPersonID(), address, name, hash, role, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.persons.Create(ctx, person); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "User already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create person")
	}
	s.metrics.IncrementRegistration(string(role))
	return person, nil
}

// Login verifies the password and issues an access token.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	person, err := s.persons.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.loginFailed()
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up person")
	}
	if err := secrets.VerifyPassword(req.Password, person.PasswordHash); err != nil {
		s.loginFailed()
		return nil, err
	}
	if !person.Active {
		s.loginFailed()
		return nil, dErrors.New(dErrors.CodeUnauthorized, "account is deactivated")
	}
	return s.session(person)
}

// IssueSession mints an access token for an existing person.
func (s *Service) IssueSession(person *models.Person) (*models.RegisterResult, error) {
	return s.session(person)
}

func (s *Service) session(person *models.Person) (*models.RegisterResult, error) {
	result := &models.RegisterResult{Person: person}
	if s.tokens == nil {
		return result, nil
	}
	token, expiresAt, err := s.tokens.IssueAccessToken(person.ID, person.Email, string(person.RoleHint))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	result.AccessToken = token
	result.ExpiresAt = expiresAt
	return result, nil
}

func (s *Service) loginFailed() {
	s.metrics.IncrementLoginFailure()
}

func translatePersonErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "person not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load person")
}
