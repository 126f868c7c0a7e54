package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches all API routes to the router. Every /v1 endpoint sits
// behind the auth middleware; health stays public for probes.
func MountRoutes(r chi.Router, h *Handler, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/healthz", h.Health)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Route("/v1", func(r chi.Router) {
			r.Route("/templates", func(r chi.Router) {
				r.Get("/", h.ListTemplates)
				r.Post("/", h.CreateTemplate)
				r.Post("/import/openapi", h.ImportOpenAPITemplate)
				r.Get("/{templateID}", h.GetTemplate)
				r.Delete("/{templateID}", h.DeleteTemplate)
			})
			r.Route("/lookups", func(r chi.Router) {
				r.Get("/", h.ListLookupTables)
				r.Put("/{table}", h.PutLookupTable)
			})
			r.Post("/generate", h.GenerateRecords)
			r.Route("/runs", func(r chi.Router) {
				r.Get("/", h.ListRuns)
				r.Get("/{runID}", h.GetRun)
			})
			r.Post("/apikeys", h.CreateAPIKey)
		})
	})
}
