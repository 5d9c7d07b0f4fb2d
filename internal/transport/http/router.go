package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Service     EventService
	Logger      *zap.Logger
	Observer    HTTPObserver
	Metrics     http.Handler
	CORSOrigins []string
	Readiness   []ReadinessCheck
}

// NewRouter wires the event API, health endpoints and metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger, cfg.Observer))
	r.Use(CORS(cfg.CORSOrigins))

	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", HealthHandler)
	r.Get("/ready", ReadyHandler(logger, cfg.Readiness...))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	svc := cfg.Service
	r.Route("/events", func(r chi.Router) {
		r.Post("/", HandleCreateEvent(svc, logger))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", HandleGetEvent(svc, logger))
			r.Post("/publish", HandlePublishEvent(svc, logger))
			r.Post("/finalize", HandleFinalizeEvent(svc, logger))
			r.Post("/cancel", HandleCancelEvent(svc, logger))
			r.Post("/sections", HandleAddSection(svc, logger))
		})
	})

	return r
}
