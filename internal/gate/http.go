package gate

import (
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/dgellow/edge-gate/internal/edge"
	jsonwriter "github.com/dgellow/edge-gate/internal/json"
	"github.com/dgellow/edge-gate/internal/log"
)

// Handler adapts the Router to net/http. Passed-through requests are
// forwarded to the upstream origin.
type Handler struct {
	router   *Router
	upstream http.Handler
}

// NewHandler creates a Handler. With a nil upstream, authorized requests get 502.
func NewHandler(router *Router, upstream http.Handler) *Handler {
	if upstream == nil {
		upstream = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			jsonwriter.WriteBadGateway(w, "No upstream configured")
		})
	}
	return &Handler{router: router, upstream: upstream}
}

// NewUpstreamProxy creates a reverse proxy to target
func NewUpstreamProxy(target *url.URL) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.LogErrorWithFields("gate", "Upstream request failed", map[string]any{
			"upstream": target.String(),
			"path":     r.URL.Path,
			"error":    err.Error(),
		})
		jsonwriter.WriteBadGateway(w, "Upstream unavailable")
	}
	return proxy
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	result, err := h.router.Handle(r.Context(), edge.FromHTTP(r))
	if err != nil {
		log.LogErrorWithFields("gate", "Unable to route request", map[string]any{
			"path":  r.URL.Path,
			"error": err.Error(),
		})
		if errors.Is(err, ErrConfiguration) {
			jsonwriter.WriteInternalServerError(w, "Gate is misconfigured")
			return
		}
		jsonwriter.WriteInternalServerError(w, "Internal Server Error")
		return
	}

	if result.Passed() {
		h.upstream.ServeHTTP(w, r)
		return
	}

	if err := result.Response.WriteHTTP(w); err != nil {
		log.LogErrorWithFields("gate", "Failed to write response", map[string]any{
			"error": err.Error(),
		})
	}
}
