package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/idgate/pkg/api"
	"github.com/aussiebroadwan/idgate/pkg/httpx"
)

func (r *Router) registerSystem() {
	public := httpx.RateLimitByIP(httpx.PublicLimit)

	r.Mux.Handle("GET /livez", public(http.HandlerFunc(r.handleLivez)))
	r.Mux.Handle("GET /readyz", public(http.HandlerFunc(r.handleReadyz)))
	if r.metrics != nil {
		r.Mux.Handle("GET /metrics", r.metrics.Handler())
	}
}

// handleLivez reports process liveness only; it never touches the database.
func (r *Router) handleLivez(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, api.HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(r.startTime).Round(time.Second).String(),
		Version: r.buildVersion,
	})
}

// handleReadyz reports readiness to serve, including database connectivity.
func (r *Router) handleReadyz(w http.ResponseWriter, req *http.Request) {
	checks := &api.HealthChecks{Database: "ok"}
	status := http.StatusOK

	if err := r.store.Ping(req.Context()); err != nil {
		checks.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	httpx.WriteJSON(w, status, api.HealthResponse{
		Status:  state,
		Uptime:  time.Since(r.startTime).Round(time.Second).String(),
		Version: r.buildVersion,
		Checks:  checks,
	})
}
