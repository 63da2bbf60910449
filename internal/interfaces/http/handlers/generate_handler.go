package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/application/generation"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/prometheus"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// GenerateService drafts replies.
type GenerateService interface {
	Generate(ctx context.Context, owner common.OwnerID, in generation.Input) (*generation.Result, error)
}

// UsageRecorder records template usage as fire-and-forget telemetry.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, owner common.OwnerID, id common.ID)
}

// GenerateHandler serves POST /api/v1/generate.
type GenerateHandler struct {
	svc     GenerateService
	usage   UsageRecorder // nil disables usage telemetry
	metrics *prometheus.Metrics
	logger  logging.Logger
}

// NewGenerateHandler creates a GenerateHandler.
func NewGenerateHandler(svc GenerateService, usage UsageRecorder, metrics *prometheus.Metrics, logger logging.Logger) *GenerateHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &GenerateHandler{svc: svc, usage: usage, metrics: metrics, logger: logger.Named("generate_handler")}
}

// Generate drafts a reply for one client message.  Templates folded into the
// prompt count as used; their increments ride on the response and never
// block it.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeUnauthorized(w)
		return
	}

	var in generation.Input
	if err := decodeJSON(r, &in); err != nil {
		writeAppError(w, err)
		return
	}

	start := time.Now()
	result, err := h.svc.Generate(r.Context(), owner, in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveGeneration(result.UsedFallback, time.Since(start))
		h.metrics.TemplateMatches.Observe(float64(len(result.Templates)))
	}

	if h.usage != nil {
		for _, tpl := range result.Templates {
			h.usage.RecordUsage(r.Context(), owner, tpl.ID)
		}
	}

	writeJSON(w, http.StatusOK, result)
}
