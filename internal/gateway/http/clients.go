package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"
	"github.com/aussiebroadwan/idgate/internal/gateway/service"
	"github.com/aussiebroadwan/idgate/pkg/api"
	"github.com/aussiebroadwan/idgate/pkg/httpx"
	"github.com/aussiebroadwan/idgate/pkg/slogx"
)

func (r *Router) registerClients() {
	limited := httpx.RateLimitBySubject(httpx.ModerateLimit)

	r.Mux.Handle("POST /v1/clients", r.admin(limited(http.HandlerFunc(r.handleClientCreate))))
	r.Mux.Handle("GET /v1/clients/{clientID}", r.admin(limited(http.HandlerFunc(r.handleClientGet))))
	r.Mux.Handle("PATCH /v1/clients/{clientID}", r.admin(limited(http.HandlerFunc(r.handleClientUpdate))))
	r.Mux.Handle("DELETE /v1/clients/{clientID}", r.admin(limited(http.HandlerFunc(r.handleClientDelete))))
	r.Mux.Handle("GET /v1/domains/{domain}/clients", r.admin(limited(http.HandlerFunc(r.handleClientList))))
}

func (r *Router) handleClientCreate(w http.ResponseWriter, req *http.Request) {
	var body api.CreateClientRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		api.ErrInvalidRequest.WriteError(w)
		return
	}

	created, err := r.ClientService.Create(req.Context(),
		body.Domain, body.ClientID, body.Name, body.Scopes, body.Confidential,
		body.AccessTokenValiditySeconds, body.RefreshTokenValiditySeconds,
	)
	if err != nil {
		writeAdminError(w, req, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, api.CreateClientResponse{
		ID:           created.Client.ID,
		ClientID:     created.Client.ClientID,
		ClientSecret: created.Secret,
	})
}

func (r *Router) handleClientGet(w http.ResponseWriter, req *http.Request) {
	c, err := r.ClientService.Get(req.Context(), req.PathValue("clientID"))
	if err != nil {
		writeAdminError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, clientView(c))
}

func (r *Router) handleClientUpdate(w http.ResponseWriter, req *http.Request) {
	var body api.UpdateClientRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		api.ErrInvalidRequest.WriteError(w)
		return
	}

	clientID := req.PathValue("clientID")
	current, err := r.ClientService.Get(req.Context(), clientID)
	if err != nil {
		writeAdminError(w, req, err)
		return
	}

	accessValidity := current.AccessTokenValiditySeconds
	if body.AccessTokenValiditySeconds != nil {
		accessValidity = *body.AccessTokenValiditySeconds
	}
	refreshValidity := current.RefreshTokenValiditySeconds
	if body.RefreshTokenValiditySeconds != nil {
		refreshValidity = *body.RefreshTokenValiditySeconds
	}

	updated, err := r.ClientService.Update(req.Context(), clientID, body.Name, body.Scopes, accessValidity, refreshValidity)
	if err != nil {
		writeAdminError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, clientView(updated))
}

func (r *Router) handleClientDelete(w http.ResponseWriter, req *http.Request) {
	if err := r.ClientService.Delete(req.Context(), req.PathValue("clientID")); err != nil {
		writeAdminError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleClientList(w http.ResponseWriter, req *http.Request) {
	clients, err := r.ClientService.List(req.Context(), req.PathValue("domain"))
	if err != nil {
		writeAdminError(w, req, err)
		return
	}

	views := make([]map[string]any, 0, len(clients))
	for _, c := range clients {
		views = append(views, clientView(c))
	}
	httpx.WriteJSON(w, http.StatusOK, views)
}

// clientView omits the secret hash from responses.
func clientView(c domain.Client) map[string]any {
	return map[string]any{
		"id":                             c.ID,
		"client_id":                      c.ClientID,
		"name":                           c.Name,
		"domain":                         c.Domain,
		"scopes":                         c.Scopes,
		"confidential":                   c.SecretHash != "",
		"access_token_validity_seconds":  c.AccessTokenValiditySeconds,
		"refresh_token_validity_seconds": c.RefreshTokenValiditySeconds,
		"created_at":                     c.CreatedAt,
		"updated_at":                     c.UpdatedAt,
	}
}

// writeAdminError maps service sentinel errors onto wire errors for the
// administrative surface.
func writeAdminError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		api.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
	case errors.Is(err, service.ErrClientNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrScopeNotFound),
		errors.Is(err, service.ErrDomainUnknown):
		api.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrClientExists),
		errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrScopeExists),
		errors.Is(err, service.ErrDomainExists):
		api.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
	default:
		slogx.FromContext(req.Context()).Error("admin operation failed", "err", err)
		api.ErrServerError.WriteError(w)
	}
}
