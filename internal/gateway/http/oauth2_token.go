package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"
	"github.com/aussiebroadwan/idgate/internal/gateway/service"
	"github.com/aussiebroadwan/idgate/internal/gateway/stepup"
	"github.com/aussiebroadwan/idgate/pkg/api"
	"github.com/aussiebroadwan/idgate/pkg/httpx"
	"github.com/aussiebroadwan/idgate/pkg/slogx"
)

func (r *Router) registerOAuth2() {
	limited := httpx.RateLimitByIP(httpx.StrictLimit)

	r.Mux.Handle("POST /v1/oauth2/token", limited(&tokenHandler{router: r}))
	r.Mux.Handle("POST /v1/oauth2/introspect", limited(&introspectHandler{router: r}))
}

// tokenHandler serves POST /v1/oauth2/token.
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type tokenHandler struct {
	router *Router
}

func (h *tokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		api.ErrInvalidContentType.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		api.ErrInvalidFormBody.WriteError(w)
		return
	}

	switch r.Form.Get("grant_type") {
	case "client_credentials":
		h.handleClientCredentialsGrant(w, r, r.Form)
	case "password":
		h.handlePasswordGrant(w, r, r.Form)
	case "refresh_token":
		// Recognised but deliberately not implemented; renewal happens
		// through re-issuance once the matching token has expired.
		api.ErrInvalidRequest.WithDescription("the refresh_token grant is not supported").WriteError(w)
	default:
		api.ErrInvalidRequest.WithDescription("unsupported grant_type").WriteError(w)
	}
}

func (h *tokenHandler) handleClientCredentialsGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	clientID := strings.TrimSpace(form.Get("client_id"))
	clientSecret := form.Get("client_secret")
	if clientID == "" {
		api.ErrInvalidRequest.WriteError(w)
		return
	}

	client, err := h.router.ClientService.Get(ctx, clientID)
	if err != nil {
		api.ErrInvalidClient.WriteError(w)
		return
	}
	if err := h.router.ClientService.VerifySecret(ctx, clientID, clientSecret); err != nil {
		api.ErrInvalidClient.WriteError(w)
		return
	}

	scopes := httpx.ParseSpaceDelimitedFields(form.Get("scope"))
	if err := h.router.ScopeService.ValidateRequested(ctx, client.Domain, scopes); err != nil {
		api.ErrInvalidScope.WriteError(w)
		return
	}

	view, err := h.router.TokenService.Create(ctx, domain.TokenRequest{
		ClientID:   clientID,
		Scopes:     scopes,
		ClientOnly: true,
	})
	if err != nil {
		writeTokenError(w, log, err)
		return
	}
	writeTokenResponse(w, view)
}

func (h *tokenHandler) handlePasswordGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	clientID := strings.TrimSpace(form.Get("client_id"))
	username := strings.TrimSpace(form.Get("username"))
	password := form.Get("password")
	if clientID == "" || username == "" || password == "" {
		api.ErrInvalidRequest.WriteError(w)
		return
	}

	client, err := h.router.ClientService.Get(ctx, clientID)
	if err != nil {
		api.ErrInvalidClient.WriteError(w)
		return
	}
	if err := h.router.ClientService.VerifySecret(ctx, clientID, form.Get("client_secret")); err != nil {
		api.ErrInvalidClient.WriteError(w)
		return
	}

	scopes := httpx.ParseSpaceDelimitedFields(form.Get("scope"))
	if err := h.router.ScopeService.ValidateRequested(ctx, client.Domain, scopes); err != nil {
		api.ErrInvalidScope.WriteError(w)
		return
	}

	user, err := h.router.UserService.Authenticate(ctx, client.Domain, username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			api.ErrInvalidGrant.WriteError(w)
			return
		}
		log.Error("password grant failed", "err", err)
		api.ErrServerError.WriteError(w)
		return
	}

	// Step-up: exempted requests pass straight through, everything else
	// must present a TOTP code with the grant.
	decision := h.router.StepUp.Evaluate(ctx, stepup.Request{
		Client: &client,
		User:   &user,
	})
	if !decision.Exempt {
		code := strings.TrimSpace(form.Get("otp_code"))
		if code == "" {
			api.ErrInvalidGrant.WithDescription("mfa challenge required").WriteError(w)
			return
		}
		if err := h.router.MFAService.Verify(ctx, user.ID, code); err != nil {
			api.ErrInvalidGrant.WithDescription("mfa challenge failed").WriteError(w)
			return
		}
	}

	view, err := h.router.TokenService.Create(ctx, domain.TokenRequest{
		ClientID:            clientID,
		Scopes:              scopes,
		Subject:             user.ID,
		SupportRefreshToken: form.Get("support_refresh") == "true",
	})
	if err != nil {
		writeTokenError(w, log, err)
		return
	}
	writeTokenResponse(w, view)
}

// introspectHandler serves POST /v1/oauth2/introspect. An unknown token is
// reported as inactive, not as an error.
type introspectHandler struct {
	router *Router
}

type introspectResponse struct {
	Active bool `json:"active"`
	api.TokenResponse
}

func (h *introspectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		api.ErrInvalidFormBody.WriteError(w)
		return
	}

	token := strings.TrimSpace(r.Form.Get("token"))
	if token == "" {
		api.ErrInvalidRequest.WriteError(w)
		return
	}

	view, err := h.router.TokenService.Get(r.Context(), token)
	if err != nil {
		slogx.FromContext(r.Context()).Error("token introspection failed", "err", err)
		api.ErrServerError.WriteError(w)
		return
	}
	if view == nil {
		httpx.WriteJSON(w, http.StatusOK, introspectResponse{Active: false})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, introspectResponse{
		Active: view.ExpiresIn > 0,
		TokenResponse: api.TokenResponse{
			Token:        view.Token,
			Scope:        view.Scope,
			ExpiresIn:    view.ExpiresIn,
			RefreshToken: view.RefreshToken,
		},
	})
}

func writeTokenResponse(w http.ResponseWriter, view domain.TokenView) {
	httpx.WriteJSON(w, http.StatusOK, api.TokenResponse{
		Token:        view.Token,
		Scope:        view.Scope,
		ExpiresIn:    view.ExpiresIn,
		RefreshToken: view.RefreshToken,
	})
}

func writeTokenError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrClientNotFound):
		api.ErrInvalidClient.WriteError(w)
	default:
		log.Error("token issuance failed", "err", err)
		api.ErrServerError.WriteError(w)
	}
}
