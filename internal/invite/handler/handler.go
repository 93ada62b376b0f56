package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clubhouse/internal/invite/models"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/platform/httputil"
	"clubhouse/pkg/requestcontext"
)

type Service interface {
	Issue(ctx context.Context, actor id.PersonID, societyID id.SocietyID, req *models.IssueRequest) (*models.IssueResult, error)
	Lookup(ctx context.Context, token string) (*models.Details, error)
	Redeem(ctx context.Context, personID id.PersonID, address, token string) (*models.RedeemResult, error)
	SignupWithInvite(ctx context.Context, req *models.SignupRequest) (*models.SignupResult, error)
	ListBySociety(ctx context.Context, actor id.PersonID, societyID id.SocietyID) ([]*models.Invite, error)
	Revoke(ctx context.Context, actor id.PersonID, token string) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the routes a prospective member reaches before
// holding a session.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/invites/{token}", h.handleLookup)
	r.Post("/auth/signup-invite", h.handleSignup)
}

func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/invites/{token}/accept", h.handleAccept)
	r.Delete("/invites/{token}", h.handleRevoke)
	r.Post("/societies/{id}/invites", h.handleIssue)
	r.Get("/societies/{id}/invites", h.handleList)
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.Lookup(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		httputil.Fail(w, r, h.logger, "invite lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Invite found", details)
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.SignupWithInvite(r.Context(), &req)
	if err != nil {
		httputil.Fail(w, r, h.logger, "signup with invite failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, "Account created and invite accepted", result)
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.service.Redeem(ctx, requestcontext.PersonID(ctx), requestcontext.Email(ctx), chi.URLParam(r, "token"))
	if err != nil {
		httputil.Fail(w, r, h.logger, "invite accept failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Invite accepted", result)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Revoke(ctx, requestcontext.PersonID(ctx), chi.URLParam(r, "token")); err != nil {
		httputil.Fail(w, r, h.logger, "invite revoke failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Invite revoked", nil)
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	societyID, err := id.ParseSocietyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.IssueRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.Issue(r.Context(), requestcontext.PersonID(r.Context()), societyID, &req)
	if err != nil {
		httputil.Fail(w, r, h.logger, "invite issue failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, "Invite created", result)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	societyID, err := id.ParseSocietyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.service.ListBySociety(r.Context(), requestcontext.PersonID(r.Context()), societyID)
	if err != nil {
		httputil.Fail(w, r, h.logger, "list invites failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Invites loaded", list)
}
