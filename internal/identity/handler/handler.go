package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clubhouse/internal/identity/models"
	membershipModels "clubhouse/internal/membership/models"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/platform/httputil"
	"clubhouse/pkg/requestcontext"
)

// Service defines the identity operations the handler exposes.
type Service interface {
	RequestChallenge(ctx context.Context, req *models.ChallengeRequest) error
	VerifyChallenge(ctx context.Context, req *models.VerifyRequest) error
	RegisterAdmin(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResult, error)
	RegisterFaculty(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResult, error)
	RegisterStudent(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResult, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error)
	GetPerson(ctx context.Context, personID id.PersonID) (*models.Person, error)
	GetConfig(ctx context.Context) (*models.PlatformConfig, error)
	AddAdminEmails(ctx context.Context, actor id.PersonID, req *models.EmailListRequest) (*models.PlatformConfig, error)
	AddFacultyEmails(ctx context.Context, actor id.PersonID, req *models.EmailListRequest) (*models.PlatformConfig, error)
}

// MembershipLookup resolves the caller's current standing for /me.
type MembershipLookup interface {
	GetActive(ctx context.Context, personID id.PersonID) (*membershipModels.Membership, error)
}

type Handler struct {
	service     Service
	memberships MembershipLookup
	logger      *slog.Logger
}

func New(service Service, memberships MembershipLookup, logger *slog.Logger) *Handler {
	return &Handler{service: service, memberships: memberships, logger: logger}
}

// RegisterPublic mounts the unauthenticated OTP, registration and login routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/otp/request", h.handleRequestChallenge)
	r.Post("/auth/otp/verify", h.handleVerifyChallenge)
	r.Post("/auth/register/admin", h.handleRegister(Service.RegisterAdmin))
	r.Post("/auth/register/faculty", h.handleRegister(Service.RegisterFaculty))
	r.Post("/auth/register/student", h.handleRegister(Service.RegisterStudent))
	r.Post("/auth/login", h.handleLogin)
}

// RegisterProtected mounts routes that need an authenticated principal.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/me", h.handleMe)
}

// RegisterAdmin mounts platform configuration routes. The caller is
// expected to gate the router on the platform admin role hint.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/config", h.handleGetConfig)
	r.Post("/admin/config/admins", h.handleAddEmails(Service.AddAdminEmails))
	r.Post("/admin/config/faculty", h.handleAddEmails(Service.AddFacultyEmails))
}

func (h *Handler) handleRequestChallenge(w http.ResponseWriter, r *http.Request) {
	var req models.ChallengeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.RequestChallenge(r.Context(), &req); err != nil {
		httputil.Fail(w, r, h.logger, "request challenge failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Verification code sent", nil)
}

func (h *Handler) handleVerifyChallenge(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.VerifyChallenge(r.Context(), &req); err != nil {
		httputil.Fail(w, r, h.logger, "verify challenge failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Email verified", nil)
}

type registerFunc func(Service, context.Context, *models.RegisterRequest) (*models.RegisterResult, error)

func (h *Handler) handleRegister(register registerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
		result, err := register(h.service, r.Context(), &req)
		if err != nil {
			httputil.Fail(w, r, h.logger, "registration failed", err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, "Registration successful", result)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.Login(r.Context(), &req)
	if err != nil {
		httputil.Fail(w, r, h.logger, "login failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Login successful", result)
}

type meResponse struct {
	Person     *models.Person               `json:"user"`
	Membership *membershipModels.Membership `json:"membership"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personID := requestcontext.PersonID(ctx)
	person, err := h.service.GetPerson(ctx, personID)
	if err != nil {
		httputil.Fail(w, r, h.logger, "load profile failed", err)
		return
	}
	resp := meResponse{Person: person}
	if h.memberships != nil {
		active, err := h.memberships.GetActive(ctx, personID)
		if err != nil {
			httputil.Fail(w, r, h.logger, "load membership failed", err)
			return
		}
		resp.Membership = active
	}
	httputil.WriteJSON(w, http.StatusOK, "Profile loaded", resp)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.GetConfig(r.Context())
	if err != nil {
		httputil.Fail(w, r, h.logger, "load platform config failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Platform config loaded", cfg)
}

type addEmailsFunc func(Service, context.Context, id.PersonID, *models.EmailListRequest) (*models.PlatformConfig, error)

func (h *Handler) handleAddEmails(add addEmailsFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.EmailListRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
		cfg, err := add(h.service, r.Context(), requestcontext.PersonID(r.Context()), &req)
		if err != nil {
			httputil.Fail(w, r, h.logger, "update platform config failed", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, "Platform config updated", cfg)
	}
}
