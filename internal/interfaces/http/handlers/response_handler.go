package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/application/responses"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/response"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/matcher"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// ResponseService commits refined responses and retrieves similar ones.
type ResponseService interface {
	Commit(ctx context.Context, owner common.OwnerID, in responses.CommitInput) (*response.RefinedResponse, error)
	Get(ctx context.Context, owner common.OwnerID, id common.ID) (*response.RefinedResponse, error)
	FindSimilar(ctx context.Context, owner common.OwnerID, message, messageType string, limit int) []matcher.SimilarityResult
}

// ResponseHandler serves the refined-response endpoints.
type ResponseHandler struct {
	svc    ResponseService
	logger logging.Logger
}

// NewResponseHandler creates a ResponseHandler.
func NewResponseHandler(svc ResponseService, logger logging.Logger) *ResponseHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ResponseHandler{svc: svc, logger: logger.Named("response_handler")}
}

// Commit handles POST /api/v1/responses/refined.
func (h *ResponseHandler) Commit(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	var in responses.CommitInput
	if err := decodeJSON(r, &in); err != nil {
		writeAppError(w, err)
		return
	}

	resp, err := h.svc.Commit(r.Context(), owner, in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /api/v1/responses/refined/{id}.
func (h *ResponseHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	resp, err := h.svc.Get(r.Context(), owner, common.ID(chi.URLParam(r, "id")))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// FindSimilar handles GET /api/v1/responses/similar.  Retrieval always
// succeeds; an empty list means no usable exemplars.
func (h *ResponseHandler) FindSimilar(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	message := r.URL.Query().Get("message")
	if message == "" {
		writeAppError(w, errors.InvalidParam("message query parameter is required"))
		return
	}

	results := h.svc.FindSimilar(r.Context(), owner, message,
		r.URL.Query().Get("message_type"), queryInt(r, "limit", 0))
	writeJSON(w, http.StatusOK, results)
}
