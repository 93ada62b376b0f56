package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clubhouse/internal/recruitment/models"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/platform/httputil"
	"clubhouse/pkg/requestcontext"
)

type Service interface {
	Apply(ctx context.Context, personID id.PersonID, societyID id.SocietyID, req *models.ApplyRequest) (*models.Application, error)
	UpdateStatus(ctx context.Context, actor id.PersonID, applicationID id.ApplicationID, req *models.StatusRequest) (*models.Application, error)
	Withdraw(ctx context.Context, personID id.PersonID, applicationID id.ApplicationID) (*models.Application, error)
	ChooseFinalSociety(ctx context.Context, personID id.PersonID, applicationID id.ApplicationID) (*models.ChoiceResult, error)
	ListMine(ctx context.Context, personID id.PersonID) ([]*models.Application, error)
	ListForSociety(ctx context.Context, actor id.PersonID, societyID id.SocietyID, status *models.Status) ([]*models.Application, error)
	CreatePanel(ctx context.Context, actor id.PersonID, societyID id.SocietyID, req *models.PanelRequest) (*models.Panel, error)
	SubmitFeedback(ctx context.Context, interviewer id.PersonID, panelID id.PanelID, req *models.FeedbackRequest) (*models.Feedback, error)
	ListFeedback(ctx context.Context, actor id.PersonID, applicationID id.ApplicationID) ([]*models.Feedback, error)
	ListPanels(ctx context.Context, actor id.PersonID, societyID id.SocietyID) ([]*models.Panel, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/societies/{id}/applications", h.handleApply)
	r.Get("/societies/{id}/applications", h.handleListForSociety)
	r.Get("/applications/mine", h.handleListMine)
	r.Patch("/applications/{id}/status", h.handleUpdateStatus)
	r.Post("/applications/{id}/withdraw", h.handleWithdraw)
	r.Post("/applications/{id}/choose", h.handleChoose)
	r.Get("/applications/{id}/feedback", h.handleListFeedback)
	r.Post("/societies/{id}/panels", h.handleCreatePanel)
	r.Get("/societies/{id}/panels", h.handleListPanels)
	r.Post("/panels/{id}/feedback", h.handleSubmitFeedback)
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	societyID, err := id.ParseSocietyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.ApplyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.service.Apply(r.Context(), requestcontext.PersonID(r.Context()), societyID, &req)
	if err != nil {
		httputil.Fail(w, r, h.logger, "apply failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, "Application submitted", app)
}

func (h *Handler) handleListForSociety(w http.ResponseWriter, r *http.Request) {
	societyID, err := id.ParseSocietyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var status *models.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		status = &parsed
	}
	list, err := h.service.ListForSociety(r.Context(), requestcontext.PersonID(r.Context()), societyID, status)
	if err != nil {
		httputil.Fail(w, r, h.logger, "list applications failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Applications loaded", list)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListMine(r.Context(), requestcontext.PersonID(r.Context()))
	if err != nil {
		httputil.Fail(w, r, h.logger, "list own applications failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Applications loaded", list)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.StatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.service.UpdateStatus(r.Context(), requestcontext.PersonID(r.Context()), applicationID, &req)
	if err != nil {
		httputil.Fail(w, r, h.logger, "update application status failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Application updated", app)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.service.Withdraw(r.Context(), requestcontext.PersonID(r.Context()), applicationID)
	if err != nil {
		httputil.Fail(w, r, h.logger, "withdraw application failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Application withdrawn", app)
}

func (h *Handler) handleChoose(w http.ResponseWriter, r *http.Request) {
	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.ChooseFinalSociety(r.Context(), requestcontext.PersonID(r.Context()), applicationID)
	if err != nil {
		httputil.Fail(w, r, h.logger, "choose final society failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Final society chosen", result)
}

func (h *Handler) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.service.ListFeedback(r.Context(), requestcontext.PersonID(r.Context()), applicationID)
	if err != nil {
		httputil.Fail(w, r, h.logger, "list feedback failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Feedback loaded", list)
}

func (h *Handler) handleCreatePanel(w http.ResponseWriter, r *http.Request) {
	societyID, err := id.ParseSocietyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.PanelRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	panel, err := h.service.CreatePanel(r.Context(), requestcontext.PersonID(r.Context()), societyID, &req)
	if err != nil {
		httputil.Fail(w, r, h.logger, "create panel failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, "Panel created", panel)
}

func (h *Handler) handleListPanels(w http.ResponseWriter, r *http.Request) {
	societyID, err := id.ParseSocietyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.service.ListPanels(r.Context(), requestcontext.PersonID(r.Context()), societyID)
	if err != nil {
		httputil.Fail(w, r, h.logger, "list panels failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Panels loaded", list)
}

func (h *Handler) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	panelID, err := id.ParsePanelID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.FeedbackRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	fb, err := h.service.SubmitFeedback(r.Context(), requestcontext.PersonID(r.Context()), panelID, &req)
	if err != nil {
		httputil.Fail(w, r, h.logger, "submit feedback failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, "Feedback submitted", fb)
}
