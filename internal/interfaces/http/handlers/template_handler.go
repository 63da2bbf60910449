package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/application/templates"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/template"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/matcher"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// TemplateService is the application-layer contract the handler needs.
type TemplateService interface {
	Create(ctx context.Context, owner common.OwnerID, in templates.CreateInput) (*template.Template, error)
	Get(ctx context.Context, owner common.OwnerID, id common.ID) (*template.Template, error)
	List(ctx context.Context, owner common.OwnerID, f template.ListFilter) ([]*template.Template, error)
	Update(ctx context.Context, owner common.OwnerID, id common.ID, in templates.UpdateInput) (*template.Template, error)
	Delete(ctx context.Context, owner common.OwnerID, id common.ID) error
	MatchMessage(ctx context.Context, owner common.OwnerID, message string, mctx *matcher.MatchContext, limit int) ([]templates.Match, error)
	ListCurated(ctx context.Context, limit int) ([]*template.Template, error)
	CopyCurated(ctx context.Context, owner common.OwnerID, id common.ID) (*template.Template, error)
	RecordUsage(ctx context.Context, owner common.OwnerID, id common.ID)
}

// TemplateHandler serves the template CRUD, matching, usage and curated
// library endpoints.
type TemplateHandler struct {
	svc    TemplateService
	logger logging.Logger
}

// NewTemplateHandler creates a TemplateHandler.
func NewTemplateHandler(svc TemplateService, logger logging.Logger) *TemplateHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &TemplateHandler{svc: svc, logger: logger.Named("template_handler")}
}

// MatchRequest is the body for POST /templates/match.
type MatchRequest struct {
	Message     string `json:"message"`
	MessageType string `json:"message_type"`
	ClientType  string `json:"client_type"`
	Limit       int    `json:"limit"`
}

// Create handles POST /api/v1/templates.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	var in templates.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeAppError(w, err)
		return
	}

	tpl, err := h.svc.Create(r.Context(), owner, in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

// Get handles GET /api/v1/templates/{id}.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	tpl, err := h.svc.Get(r.Context(), owner, common.ID(chi.URLParam(r, "id")))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// List handles GET /api/v1/templates.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	q := r.URL.Query()
	filter := template.ListFilter{
		Category:     q.Get("category"),
		ClientType:   q.Get("client_type"),
		OrderByUsage: q.Get("order_by") == "usage",
		Limit:        queryInt(r, "limit", 50),
		Offset:       queryInt(r, "offset", 0),
	}

	tpls, err := h.svc.List(r.Context(), owner, filter)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tpls)
}

// Update handles PUT /api/v1/templates/{id}.
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	var in templates.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeAppError(w, err)
		return
	}

	tpl, err := h.svc.Update(r.Context(), owner, common.ID(chi.URLParam(r, "id")), in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// Delete handles DELETE /api/v1/templates/{id}.
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	if err := h.svc.Delete(r.Context(), owner, common.ID(chi.URLParam(r, "id"))); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Match handles POST /api/v1/templates/match.
func (h *TemplateHandler) Match(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	var req MatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if req.Message == "" {
		writeAppError(w, errors.InvalidParam("message is required"))
		return
	}

	mctx := &matcher.MatchContext{MessageType: req.MessageType, ClientType: req.ClientType}
	matches, err := h.svc.MatchMessage(r.Context(), owner, req.Message, mctx, req.Limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// RecordUsage handles POST /api/v1/templates/{id}/used.  Usage is telemetry:
// the endpoint acknowledges immediately and never fails the caller.
func (h *TemplateHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	h.svc.RecordUsage(r.Context(), owner, common.ID(chi.URLParam(r, "id")))
	w.WriteHeader(http.StatusAccepted)
}

// ListCurated handles GET /api/v1/library.
func (h *TemplateHandler) ListCurated(w http.ResponseWriter, r *http.Request) {
	tpls, err := h.svc.ListCurated(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tpls)
}

// CopyCurated handles POST /api/v1/library/{id}/copy.
func (h *TemplateHandler) CopyCurated(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	tpl, err := h.svc.CopyCurated(r.Context(), owner, common.ID(chi.URLParam(r, "id")))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}
