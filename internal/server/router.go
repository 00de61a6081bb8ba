package server

import (
	"net/http"

	"github.com/fyreone/firekb/internal/api"
	"github.com/fyreone/firekb/internal/api/handlers"
	"github.com/fyreone/firekb/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	DocumentHandler *handlers.DocumentHandler
	SearchHandler   *handlers.SearchHandler
	AuditHandler    *handlers.AuditHandler
	AdminHandler    *handlers.AdminHandler
	EventHandler    *handlers.EventHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/documents", func(r chi.Router) {
		r.Post("/", cfg.DocumentHandler.Submit)
		r.Get("/", cfg.DocumentHandler.List)
		r.Get("/{id}", cfg.DocumentHandler.Get)
		r.Put("/{id}", cfg.DocumentHandler.Update)
		r.Delete("/{id}", cfg.DocumentHandler.Delete)
		r.Get("/{id}/revisions", cfg.DocumentHandler.ListRevisions)
		r.Get("/{id}/jobs", cfg.DocumentHandler.ListJobs)
		r.Get("/{id}/events", cfg.EventHandler.ListDocumentEvents)
	})

	r.Get("/jobs/{id}", cfg.DocumentHandler.GetJob)

	r.Post("/search", cfg.SearchHandler.Search)
	r.Post("/search/{id}/feedback", cfg.SearchHandler.Feedback)

	r.Route("/policies", func(r chi.Router) {
		r.Post("/", cfg.AuditHandler.CreatePolicy)
		r.Get("/", cfg.AuditHandler.ListPolicies)
		r.Post("/run", cfg.AuditHandler.RunAll)
		r.Get("/{id}", cfg.AuditHandler.GetPolicy)
		r.Put("/{id}", cfg.AuditHandler.UpdatePolicy)
		r.Post("/{id}/run", cfg.AuditHandler.RunPolicy)
		r.Get("/{id}/events", cfg.EventHandler.ListPolicyEvents)
	})

	r.Route("/audit/results", func(r chi.Router) {
		r.Get("/", cfg.AuditHandler.ListResults)
		r.Post("/{id}/resolve", cfg.AuditHandler.ResolveResult)
	})

	r.Get("/admin/stats", cfg.AdminHandler.Stats)

	return r
}
