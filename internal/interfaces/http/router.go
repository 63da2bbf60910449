// Package http assembles the API route tree and the server that carries it.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/prometheus"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/interfaces/http/handlers"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware for the route tree.
// Nil handlers leave their routes unregistered, which keeps tests small.
type RouterConfig struct {
	GenerateHandler     *handlers.GenerateHandler
	TemplateHandler     *handlers.TemplateHandler
	ImportHandler       *handlers.ImportHandler
	ResponseHandler     *handlers.ResponseHandler
	ConversationHandler *handlers.ConversationHandler
	ProfileHandler      *handlers.ProfileHandler
	HealthHandler       *handlers.HealthHandler

	Auth        *middleware.Auth
	CORS        middleware.CORSConfig
	RateLimiter *middleware.RateLimiter

	Logger  logging.Logger
	Metrics *prometheus.Metrics
}

// NewRouter builds the complete route tree: public probes, the metrics
// endpoint, and the authenticated /api/v1 resource groups.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.Auth != nil {
			api.Use(cfg.Auth.Handler)
		}
		if cfg.RateLimiter != nil {
			api.Use(cfg.RateLimiter.Handler)
		}

		if cfg.GenerateHandler != nil {
			api.Post("/generate", cfg.GenerateHandler.Generate)
		}

		if cfg.TemplateHandler != nil {
			api.Route("/templates", func(t chi.Router) {
				t.Get("/", cfg.TemplateHandler.List)
				t.Post("/", cfg.TemplateHandler.Create)
				t.Post("/match", cfg.TemplateHandler.Match)
				t.Get("/{id}", cfg.TemplateHandler.Get)
				t.Put("/{id}", cfg.TemplateHandler.Update)
				t.Delete("/{id}", cfg.TemplateHandler.Delete)
				t.Post("/{id}/used", cfg.TemplateHandler.RecordUsage)
			})
			api.Route("/library", func(l chi.Router) {
				l.Get("/", cfg.TemplateHandler.ListCurated)
				l.Post("/{id}/copy", cfg.TemplateHandler.CopyCurated)
			})
		}

		if cfg.ImportHandler != nil {
			api.Route("/imports", func(i chi.Router) {
				i.Post("/", cfg.ImportHandler.Upload)
				i.Get("/{id}", cfg.ImportHandler.GetSession)
			})
		}

		if cfg.ResponseHandler != nil {
			api.Route("/responses", func(resp chi.Router) {
				resp.Post("/refined", cfg.ResponseHandler.Commit)
				resp.Get("/refined/{id}", cfg.ResponseHandler.Get)
				resp.Get("/similar", cfg.ResponseHandler.FindSimilar)
			})
		}

		if cfg.ConversationHandler != nil {
			api.Route("/conversations", func(c chi.Router) {
				c.Post("/", cfg.ConversationHandler.Capture)
				c.Get("/", cfg.ConversationHandler.List)
				c.Get("/attachments", cfg.ConversationHandler.AttachmentURL)
			})
		}

		if cfg.ProfileHandler != nil {
			api.Get("/profile", cfg.ProfileHandler.Get)
			api.Put("/profile", cfg.ProfileHandler.Put)
		}
	})

	return r
}
