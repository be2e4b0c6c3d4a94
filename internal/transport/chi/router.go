package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mfgchat/internal/metrics"
)

// RouterOptions configures the middleware stack around the handlers.
type RouterOptions struct {
	APIKeys       []string
	ChatRateLimit float64
	ChatRateBurst int
	Logger        *zap.Logger
}

// NewRouter mounts the API routes with recovery, request id, logging, auth and metrics.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(logger))
	r.Use(BearerAuthMiddleware(opts.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.With(RateLimitMiddleware(opts.ChatRateLimit, opts.ChatRateBurst)).Post("/chat", s.Chat)
	r.Get("/modes", s.Modes)
	r.Post("/projects", s.AddProject)
	r.Get("/projects/{id}", s.GetProject)
	r.Route("/sync", func(r chi.Router) {
		r.Post("/projects", s.SyncProjects)
		r.Post("/services", s.SyncServices)
	})
	return r
}
