package server

import (
	"net/http"

	"github.com/dgellow/edge-gate/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthPath answers liveness probes without going through the gate.
// It and the metrics path shadow upstream content at the same paths.
const HealthPath = config.HealthPath

// MetricsEndpoint exposes a Prometheus gatherer, optionally behind basic auth
type MetricsEndpoint struct {
	Path           string
	Gatherer       prometheus.Gatherer
	Username       string
	HashedPassword string
}

// NewRouter mounts the operational endpoints and sends everything else to gate
func NewRouter(gate http.Handler, metrics *MetricsEndpoint) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware("http"))
	r.Use(NewRecoverMiddleware("edge-gate"))

	r.Method(http.MethodGet, HealthPath, NewHealthHandler())

	if metrics != nil {
		var h http.Handler = promhttp.HandlerFor(metrics.Gatherer, promhttp.HandlerOpts{})
		if metrics.Username != "" {
			h = NewBasicAuthMiddleware("metrics", metrics.Username, metrics.HashedPassword)(h)
		}
		r.Method(http.MethodGet, metrics.Path, h)
	}

	r.Handle("/*", gate)
	return r
}
