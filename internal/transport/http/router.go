// Package httptransport assembles the public HTTP surface of the registry.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"credchain/internal/platform/health"
	"credchain/internal/platform/middleware"
	"credchain/internal/registry/handler"
)

// NewRouter wires all endpoints with the shared middleware stack. Reads are
// public; mutations sit behind the bearer-token middleware so every state
// change carries a caller address.
func NewRouter(
	registry *handler.Handler,
	healthHandler *health.Handler,
	tokens middleware.TokenValidator,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	registry.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireCaller(tokens, logger))
		registry.RegisterProtected(r)
	})

	return r
}
