package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clubhouse/internal/membership/models"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/platform/httputil"
	"clubhouse/pkg/requestcontext"
)

// Service defines the membership reads and self-service writes exposed
// over HTTP. Transitions into a society only happen through invites and
// recruitment, never directly.
type Service interface {
	ListBy(ctx context.Context, filter models.Filter) ([]*models.Membership, error)
	History(ctx context.Context, personID id.PersonID) ([]*models.Membership, error)
	Leave(ctx context.Context, personID id.PersonID) (*models.Membership, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/societies/{id}/members", h.handleRoster)
	r.Get("/memberships/history", h.handleHistory)
	r.Post("/memberships/leave", h.handleLeave)
}

// handleRoster lists a society's active members. Optional query parameters
// narrow by department and role; all=true includes ended memberships.
func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	societyID, err := id.ParseSocietyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter := models.Filter{SocietyID: &societyID, ActiveOnly: r.URL.Query().Get("all") != "true"}
	if raw := r.URL.Query().Get("department"); raw != "" {
		departmentID, err := id.ParseDepartmentID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.DepartmentID = &departmentID
	}
	if raw := r.URL.Query().Get("role"); raw != "" {
		role, err := id.ParseRole(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Role = role
	}

	roster, err := h.service.ListBy(r.Context(), filter)
	if err != nil {
		httputil.Fail(w, r, h.logger, "list members failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Members loaded", roster)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context(), requestcontext.PersonID(r.Context()))
	if err != nil {
		httputil.Fail(w, r, h.logger, "load membership history failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Membership history loaded", history)
}

func (h *Handler) handleLeave(w http.ResponseWriter, r *http.Request) {
	ended, err := h.service.Leave(r.Context(), requestcontext.PersonID(r.Context()))
	if err != nil {
		httputil.Fail(w, r, h.logger, "leave society failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Membership ended", ended)
}
