package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/application/generation"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/prometheus"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/interfaces/http/middleware"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

type generateSvcMock struct {
	generateFn func(ctx context.Context, owner common.OwnerID, in generation.Input) (*generation.Result, error)
}

func (m *generateSvcMock) Generate(ctx context.Context, owner common.OwnerID, in generation.Input) (*generation.Result, error) {
	return m.generateFn(ctx, owner, in)
}

type usageRecorderMock struct {
	recorded []common.ID
}

func (m *usageRecorderMock) RecordUsage(_ context.Context, _ common.OwnerID, id common.ID) {
	m.recorded = append(m.recorded, id)
}

func generateRequest(body string, owner common.OwnerID) *http.Request {
	req := httptest.NewRequest("POST", "/api/v1/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req = req.WithContext(middleware.ContextWithOwner(req.Context(), owner))
	}
	return req
}

func TestGenerateReturnsDraftAndRecordsUsage(t *testing.T) {
	svc := &generateSvcMock{generateFn: func(_ context.Context, owner common.OwnerID, in generation.Input) (*generation.Result, error) {
		assert.Equal(t, common.OwnerID("u-1"), owner)
		assert.Equal(t, "when will the logo be ready?", in.ClientMessage)
		return &generation.Result{
			Reply:       "It ships tomorrow!",
			MessageType: "follow_up",
			Templates: []generation.ScoredTemplate{
				{ID: "t-1", Score: 0.8},
				{ID: "t-2", Score: 0.5},
			},
		}, nil
	}}
	usage := &usageRecorderMock{}
	h := NewGenerateHandler(svc, usage, prometheus.NewMetrics(), logging.NewNopLogger())

	rec := httptest.NewRecorder()
	h.Generate(rec, generateRequest(`{"client_message":"when will the logo be ready?"}`, "u-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "It ships tomorrow!")
	assert.Equal(t, []common.ID{"t-1", "t-2"}, usage.recorded)
}

func TestGenerateFallbackStillSucceeds(t *testing.T) {
	svc := &generateSvcMock{generateFn: func(context.Context, common.OwnerID, generation.Input) (*generation.Result, error) {
		return &generation.Result{Reply: "fallback text", UsedFallback: true}, nil
	}}
	h := NewGenerateHandler(svc, nil, nil, logging.NewNopLogger())

	rec := httptest.NewRecorder()
	h.Generate(rec, generateRequest(`{"client_message":"hello"}`, "u-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"used_fallback":true`)
}

func TestGenerateMapsValidationError(t *testing.T) {
	svc := &generateSvcMock{generateFn: func(context.Context, common.OwnerID, generation.Input) (*generation.Result, error) {
		return nil, errors.InvalidParam("client message is required")
	}}
	h := NewGenerateHandler(svc, nil, nil, logging.NewNopLogger())

	rec := httptest.NewRecorder()
	h.Generate(rec, generateRequest(`{"client_message":""}`, "u-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateRequiresIdentity(t *testing.T) {
	h := NewGenerateHandler(&generateSvcMock{}, nil, nil, logging.NewNopLogger())
	rec := httptest.NewRecorder()
	h.Generate(rec, generateRequest(`{"client_message":"hi"}`, ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
