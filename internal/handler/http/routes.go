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

	router.Get("/api/ping", h.ping)

	router.Group(func(r chi.Router) {
		r.Use(h.withAuth)

		r.Route("/api/c/{collection}", func(r chi.Router) {
			r.Post("/bulk", h.bulkPutRecords)
			r.Get("/changes", h.changes)
			r.Post("/query", h.queryRecords)
			r.Get("/{id}", h.getRecord)
			r.Put("/{id}", h.putRecord)
		})
	})

	return router
}
