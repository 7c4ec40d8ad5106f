package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)
		r.Get("/version", h.getVersion)

		r.Route("/sync", func(r chi.Router) {
			r.Post("/differential", h.applyDifferential)
			r.Get("/state", h.getState)
		})

		r.Route("/records", func(r chi.Router) {
			r.Get("/", h.listRecords)
			r.Get("/{id}", h.getRecord)
			r.Post("/{id}/track", h.trackChange)
			r.Post("/{id}/rollback", h.rollbackChange)
			r.Post("/{id}/resolve", h.resolveConflict)
		})
	})

	return router
}
