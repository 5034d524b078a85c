package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
)

const traceIDHeader = "X-Trace-ID"

// withTraceID attaches a per-request trace id to the response header and the
// request-scoped logger. An id supplied by the caller is kept so traces span
// the client and the replica.
func (h *Handler) withTraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		requestLogger := &logger.Logger{Logger: h.logger.With().Str("trace_id", traceID).Logger()}
		r = r.WithContext(requestLogger.WithContext(r.Context()))

		w.Header().Set(traceIDHeader, traceID)
		next.ServeHTTP(w, r)
	})
}
