package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sagar8080/semantic-search-system/internal/metrics"
)

// NewRouter mounts the API. Every route gets panic recovery, request ids, request
// logging and HTTP metrics; the /v1 group additionally requires an API key when any are set.
func NewRouter(s *Server, apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(accessLog(s.logger))
	r.Use(recoverJSON(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(requireAPIKey(apiKeys))
		r.Get("/search", s.SearchGet)
		r.Post("/search", s.SearchPost)
		r.Post("/search/kb", s.SearchKB)
		r.Post("/search/documents", s.SearchDocuments)
		r.Post("/answer", s.Answer)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})
	return r
}
