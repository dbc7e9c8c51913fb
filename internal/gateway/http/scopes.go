package http

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/idgate/pkg/api"
	"github.com/aussiebroadwan/idgate/pkg/httpx"
)

func (r *Router) registerScopes() {
	limited := httpx.RateLimitBySubject(httpx.ModerateLimit)

	r.Mux.Handle("POST /v1/domains/{domain}/scopes", r.admin(limited(http.HandlerFunc(r.handleScopeCreate))))
	r.Mux.Handle("GET /v1/domains/{domain}/scopes", r.admin(limited(http.HandlerFunc(r.handleScopeList))))
	r.Mux.Handle("PATCH /v1/domains/{domain}/scopes/{key}", r.admin(limited(http.HandlerFunc(r.handleScopeUpdate))))
	r.Mux.Handle("DELETE /v1/domains/{domain}/scopes/{key}", r.admin(limited(http.HandlerFunc(r.handleScopeDelete))))
}

func (r *Router) handleScopeCreate(w http.ResponseWriter, req *http.Request) {
	var body api.CreateScopeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		api.ErrInvalidRequest.WriteError(w)
		return
	}

	sc, err := r.ScopeService.Create(req.Context(), req.PathValue("domain"), body.Key, body.Name, body.Description)
	if err != nil {
		writeAdminError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, sc)
}

func (r *Router) handleScopeList(w http.ResponseWriter, req *http.Request) {
	list, err := r.ScopeService.List(req.Context(), req.PathValue("domain"))
	if err != nil {
		writeAdminError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (r *Router) handleScopeUpdate(w http.ResponseWriter, req *http.Request) {
	var body api.CreateScopeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		api.ErrInvalidRequest.WriteError(w)
		return
	}

	sc, err := r.ScopeService.Update(req.Context(), req.PathValue("domain"), req.PathValue("key"), body.Name, body.Description)
	if err != nil {
		writeAdminError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sc)
}

func (r *Router) handleScopeDelete(w http.ResponseWriter, req *http.Request) {
	if err := r.ScopeService.Delete(req.Context(), req.PathValue("domain"), req.PathValue("key")); err != nil {
		writeAdminError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
