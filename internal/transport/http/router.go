// Package http assembles the coordinator's HTTP surface: health and metrics
// endpoints plus the versioned state API.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"atelier/pkg/platform/middleware/metadata"
	"atelier/pkg/platform/middleware/requesttime"
)

// Registrar mounts a module's endpoints on a router.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter builds the chi router with the shared middleware chain and
// mounts each module under /v1.
func NewRouter(modules ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		for _, m := range modules {
			m.Register(v1)
		}
	})

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
