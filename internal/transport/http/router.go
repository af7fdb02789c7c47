// Package httptransport assembles the public API router: middleware chain,
// operational endpoints and every feature handler mounted under /api.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/platform/middleware"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/transport/httpx"
)

const requestTimeout = 30 * time.Second

// Registrar is implemented by every feature handler.
type Registrar interface {
	Register(chi.Router)
}

// HealthChecker reports dependency health for the readiness endpoint.
type HealthChecker func(ctx context.Context) map[string]string

// NewRouter builds the full HTTP surface.
func NewRouter(log *slog.Logger, health HealthChecker, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		status := map[string]string{"status": "ok"}
		if health != nil {
			for name, state := range health(req.Context()) {
				status[name] = state
			}
		}
		httpx.WriteJSON(w, http.StatusOK, status)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		for _, h := range handlers {
			h.Register(api)
		}
	})
	return r
}
