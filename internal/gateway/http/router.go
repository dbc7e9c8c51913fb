// Package http wires the gateway's HTTP surface: the token endpoints, the
// step-up evaluation endpoint and the administrative API.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/idgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/idgate/internal/gateway/service"
	"github.com/aussiebroadwan/idgate/internal/gateway/stepup"
	"github.com/aussiebroadwan/idgate/internal/gateway/store"
	"github.com/aussiebroadwan/idgate/pkg/httpx"
	"github.com/aussiebroadwan/idgate/pkg/jwtx"
	"github.com/aussiebroadwan/idgate/pkg/slogx"
)

// AdminScope guards the administrative API.
const AdminScope = "admin"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store   store.Store
	metrics *metrics.Metrics

	TokenService  *service.TokenService
	ClientService *service.ClientService
	UserService   *service.UserService
	DomainService *service.DomainService
	ScopeService  *service.ScopeService
	MFAService    *service.MFAService
	StepUp        *stepup.Pipeline
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		metrics:      m,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerStepUp()
	r.registerMFA()
	r.registerClients()
	r.registerUsers()
	r.registerDomains()
	r.registerScopes()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// admin wraps a handler with bearer authentication and the admin scope
// requirement.
func (r *Router) admin(h http.Handler) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope(AdminScope),
	)
}
