package http

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/idgate/pkg/api"
	"github.com/aussiebroadwan/idgate/pkg/httpx"
)

func (r *Router) registerDomains() {
	limited := httpx.RateLimitBySubject(httpx.ModerateLimit)

	r.Mux.Handle("POST /v1/domains", r.admin(limited(http.HandlerFunc(r.handleDomainCreate))))
	r.Mux.Handle("GET /v1/domains", r.admin(limited(http.HandlerFunc(r.handleDomainList))))
	r.Mux.Handle("GET /v1/domains/{domain}", r.admin(limited(http.HandlerFunc(r.handleDomainGet))))
	r.Mux.Handle("POST /v1/domains/{domain}/enable", r.admin(limited(r.handleDomainSetEnabled(true))))
	r.Mux.Handle("POST /v1/domains/{domain}/disable", r.admin(limited(r.handleDomainSetEnabled(false))))
	r.Mux.Handle("DELETE /v1/domains/{domain}", r.admin(limited(http.HandlerFunc(r.handleDomainDelete))))
}

func (r *Router) handleDomainCreate(w http.ResponseWriter, req *http.Request) {
	var body api.CreateDomainRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		api.ErrInvalidRequest.WriteError(w)
		return
	}

	d, err := r.DomainService.Create(req.Context(), body.Name, body.Description)
	if err != nil {
		writeAdminError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, d)
}

func (r *Router) handleDomainList(w http.ResponseWriter, req *http.Request) {
	list, err := r.DomainService.List(req.Context())
	if err != nil {
		writeAdminError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (r *Router) handleDomainGet(w http.ResponseWriter, req *http.Request) {
	d, err := r.DomainService.Get(req.Context(), req.PathValue("domain"))
	if err != nil {
		writeAdminError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, d)
}

func (r *Router) handleDomainSetEnabled(enabled bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		d, err := r.DomainService.SetEnabled(req.Context(), req.PathValue("domain"), enabled)
		if err != nil {
			writeAdminError(w, req, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, d)
	})
}

func (r *Router) handleDomainDelete(w http.ResponseWriter, req *http.Request) {
	if err := r.DomainService.Delete(req.Context(), req.PathValue("domain")); err != nil {
		writeAdminError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
