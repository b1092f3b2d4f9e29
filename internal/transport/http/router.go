// Package httptransport assembles the public router. Route handlers live with
// their modules; this only mounts them behind the shared middleware chain.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	platformmetrics "pulsefit/internal/platform/metrics"
	"pulsefit/internal/platform/middleware"
)

// ModuleHandler mounts a module's routes onto the router.
type ModuleHandler interface {
	Register(r chi.Router)
}

// NewRouter wires the shared middleware chain, operational endpoints, and all
// module handlers.
func NewRouter(logger *slog.Logger, metrics *platformmetrics.Metrics, handlers ...ModuleHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
