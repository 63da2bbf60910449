// Package middleware holds the HTTP middleware chain: identity extraction,
// CORS, request logging and per-owner rate limiting.
package middleware

import (
	"context"
	"net/http"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/config"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// contextKey is unexported to prevent collisions with other packages.
type contextKey int

const ownerContextKey contextKey = iota

// DefaultSubjectHeader carries the gateway-verified user identity.
const DefaultSubjectHeader = "X-User-Id"

// ContextOwnerID returns the authenticated owner, or "" for anonymous
// requests.
func ContextOwnerID(ctx context.Context) common.OwnerID {
	owner, _ := ctx.Value(ownerContextKey).(common.OwnerID)
	return owner
}

// ContextWithOwner injects an owner identity (used by handler tests).
func ContextWithOwner(ctx context.Context, owner common.OwnerID) context.Context {
	return context.WithValue(ctx, ownerContextKey, owner)
}

// Auth extracts the verified subject header set by the fronting gateway.
// Token verification happens upstream; a missing subject is rejected unless
// anonymous access is enabled for tests.
type Auth struct {
	header    string
	allowAnon bool
	logger    logging.Logger
}

// NewAuth builds the identity middleware from configuration.
func NewAuth(cfg config.AuthConfig, logger logging.Logger) *Auth {
	header := cfg.SubjectHeader
	if header == "" {
		header = DefaultSubjectHeader
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Auth{header: header, allowAnon: cfg.AllowAnon, logger: logger.Named("auth")}
}

// Handler enforces the identity requirement and stores the owner in the
// request context.
func (a *Auth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := r.Header.Get(a.header)
		if subject == "" {
			if a.allowAnon {
				next.ServeHTTP(w, r)
				return
			}
			a.logger.Debug("rejected request without subject header",
				logging.String("path", r.URL.Path),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"Unauthorized","message":"missing identity"}`))
			return
		}
		ctx := ContextWithOwner(r.Context(), common.OwnerID(subject))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
