package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
)

// withLogging emits one summary line per request after the handler chain has
// finished. The collection route parameter is resolved post-routing so
// per-collection traffic can be filtered in the logs.
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)
		start := time.Now()

		lw := &responseWriter{
			ResponseWriter: w,
		}

		next.ServeHTTP(lw, r)

		event := log.Info().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Int("status", lw.status).
			Dur("duration", time.Since(start)).
			Int("size", lw.size)
		if collection := chi.URLParam(r, "collection"); collection != "" {
			event = event.Str("collection", collection)
		}
		event.Send()
	})
}
