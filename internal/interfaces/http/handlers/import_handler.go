package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/imports"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/prometheus"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// ImportService runs bulk template imports.
type ImportService interface {
	Import(ctx context.Context, owner common.OwnerID, filename, formatHint string, r io.Reader) (*imports.UploadSession, error)
	GetSession(ctx context.Context, owner common.OwnerID, id common.ID) (*imports.UploadSession, error)
}

// ImportHandler serves the bulk-import endpoints.
type ImportHandler struct {
	svc     ImportService
	metrics *prometheus.Metrics
	logger  logging.Logger
}

// NewImportHandler creates an ImportHandler.
func NewImportHandler(svc ImportService, metrics *prometheus.Metrics, logger logging.Logger) *ImportHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ImportHandler{svc: svc, metrics: metrics, logger: logger.Named("import_handler")}
}

// Upload handles POST /api/v1/imports.  The payload is either a multipart
// form with a "file" part, or the raw document body with an optional
// ?format= hint.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	body, filename, err := importPayload(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	defer body.Close()

	session, err := h.svc.Import(r.Context(), owner, filename, r.URL.Query().Get("format"), body)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveImport(string(session.Status), session.Processed, session.Failed)
	}
	writeJSON(w, http.StatusCreated, session)
}

// GetSession handles GET /api/v1/imports/{id}.
func (h *ImportHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	session, err := h.svc.GetSession(r.Context(), owner, common.ID(chi.URLParam(r, "id")))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// importPayload extracts the document reader and filename from the request.
func importPayload(r *http.Request) (io.ReadCloser, string, error) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" || r.Body == nil {
		return nil, "", errors.InvalidParam("request body is required")
	}

	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", errors.Wrap(err, errors.CodeInvalidParam, "multipart upload requires a file part")
		}
		return file, header.Filename, nil
	}
	return r.Body, r.URL.Query().Get("filename"), nil
}
