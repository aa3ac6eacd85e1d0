// Package transport exposes the authorizer as an HTTP decision service.
//
// API gateways and sidecars POST the authorization event to /v1/authorize
// and receive the IAM-style decision document back. /healthz and /metrics
// serve probes and Prometheus.
package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guilleojeda/community-content-tracker-sub000/internal/authorizer"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/metrics"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/observability/logger"
)

// Deps are the router's collaborators.
type Deps struct {
	Authorizer *authorizer.Authorizer
}

// NewRouter assembles the decision service router.
func NewRouter(deps Deps) http.Handler {
	h := &handlers{authz: deps.Authorizer}

	r := chi.NewRouter()
	r.Use(WithRecover(), WithRequestID(), WithLogging())

	r.Post("/v1/authorize", h.authorize)
	r.Get("/healthz", h.health)

	if mh, err := metrics.Handler(nil); err == nil {
		r.Method(http.MethodGet, "/metrics", mh)
	} else {
		logger.L().Warn("metrics registration failed", logger.Err(err))
	}

	return r
}
