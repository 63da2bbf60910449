package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/config"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

func TestAuthInjectsOwnerFromHeader(t *testing.T) {
	auth := NewAuth(config.AuthConfig{}, logging.NewNopLogger())

	var gotOwner common.OwnerID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOwner = ContextOwnerID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/v1/templates", nil)
	req.Header.Set(DefaultSubjectHeader, "u-42")
	rec := httptest.NewRecorder()
	auth.Handler(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, common.OwnerID("u-42"), gotOwner)
}

func TestAuthRejectsMissingSubject(t *testing.T) {
	auth := NewAuth(config.AuthConfig{}, logging.NewNopLogger())
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})

	req := httptest.NewRequest("GET", "/api/v1/templates", nil)
	rec := httptest.NewRecorder()
	auth.Handler(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing identity")
}

func TestAuthAllowAnonPassesThrough(t *testing.T) {
	auth := NewAuth(config.AuthConfig{AllowAnon: true}, logging.NewNopLogger())
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Empty(t, ContextOwnerID(r.Context()))
	})

	req := httptest.NewRequest("GET", "/api/v1/templates", nil)
	auth.Handler(next).ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, called)
}

func TestAuthCustomHeader(t *testing.T) {
	auth := NewAuth(config.AuthConfig{SubjectHeader: "X-Gateway-Subject"}, logging.NewNopLogger())

	var gotOwner common.OwnerID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOwner = ContextOwnerID(r.Context())
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Gateway-Subject", "u-7")
	auth.Handler(next).ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, common.OwnerID("u-7"), gotOwner)
}
