package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clubhouse/internal/org/models"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/platform/httputil"
	"clubhouse/pkg/requestcontext"
)

type Service interface {
	CreateCollege(ctx context.Context, actor id.PersonID, req *models.CreateCollegeRequest) (*models.College, error)
	CreateSociety(ctx context.Context, actor id.PersonID, req *models.CreateSocietyRequest) (*models.Society, error)
	CreateDepartment(ctx context.Context, actor id.PersonID, societyID id.SocietyID, req *models.CreateDepartmentRequest) (*models.Department, error)
	GetSociety(ctx context.Context, societyID id.SocietyID) (*models.Society, error)
	ListSocieties(ctx context.Context, collegeID id.CollegeID) ([]*models.Society, error)
	GetDepartment(ctx context.Context, departmentID id.DepartmentID) (*models.Department, error)
	ListDepartments(ctx context.Context, societyID id.SocietyID) ([]*models.Department, error)
	DepartmentHead(ctx context.Context, departmentID id.DepartmentID) (*models.DepartmentHead, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/colleges/{id}/societies", h.handleListSocieties)
	r.Get("/societies/{id}", h.handleGetSociety)
	r.Get("/societies/{id}/departments", h.handleListDepartments)
	r.Post("/societies/{id}/departments", h.handleCreateDepartment)
	r.Get("/departments/{id}", h.handleGetDepartment)
	r.Get("/departments/{id}/head", h.handleDepartmentHead)
}

// RegisterFaculty mounts routes the caller gates on the FACULTY role hint.
func (h *Handler) RegisterFaculty(r chi.Router) {
	r.Post("/societies", h.handleCreateSociety)
}

// RegisterAdmin mounts routes the caller gates on platform administration.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/colleges", h.handleCreateCollege)
}

func (h *Handler) handleCreateCollege(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCollegeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	college, err := h.service.CreateCollege(r.Context(), requestcontext.PersonID(r.Context()), &req)
	if err != nil {
		httputil.Fail(w, r, h.logger, "create college failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, "College created", college)
}

func (h *Handler) handleCreateSociety(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSocietyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	society, err := h.service.CreateSociety(r.Context(), requestcontext.PersonID(r.Context()), &req)
	if err != nil {
		httputil.Fail(w, r, h.logger, "create society failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, "Society created", society)
}

func (h *Handler) handleListSocieties(w http.ResponseWriter, r *http.Request) {
	collegeID, err := id.ParseCollegeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.service.ListSocieties(r.Context(), collegeID)
	if err != nil {
		httputil.Fail(w, r, h.logger, "list societies failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Societies loaded", list)
}

func (h *Handler) handleGetSociety(w http.ResponseWriter, r *http.Request) {
	societyID, err := id.ParseSocietyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	society, err := h.service.GetSociety(r.Context(), societyID)
	if err != nil {
		httputil.Fail(w, r, h.logger, "get society failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Society loaded", society)
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	societyID, err := id.ParseSocietyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.service.ListDepartments(r.Context(), societyID)
	if err != nil {
		httputil.Fail(w, r, h.logger, "list departments failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Departments loaded", list)
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	societyID, err := id.ParseSocietyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.CreateDepartmentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	dept, err := h.service.CreateDepartment(r.Context(), requestcontext.PersonID(r.Context()), societyID, &req)
	if err != nil {
		httputil.Fail(w, r, h.logger, "create department failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, "Department created", dept)
}

func (h *Handler) handleGetDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID, err := id.ParseDepartmentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	dept, err := h.service.GetDepartment(r.Context(), departmentID)
	if err != nil {
		httputil.Fail(w, r, h.logger, "get department failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Department loaded", dept)
}

func (h *Handler) handleDepartmentHead(w http.ResponseWriter, r *http.Request) {
	departmentID, err := id.ParseDepartmentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	head, err := h.service.DepartmentHead(r.Context(), departmentID)
	if err != nil {
		httputil.Fail(w, r, h.logger, "get department head failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Department head loaded", head)
}
