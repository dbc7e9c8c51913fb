// Package api holds the wire types shared between the gateway's HTTP
// handlers and its callers.
package api

// TokenResponse is the external view of an access token record. This is the
// payload the surrounding OAuth2 protocol layer serializes; no further wire
// format is prescribed.
type TokenResponse struct {
	Token        string `json:"token"`
	Scope        string `json:"scope,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ErrorResponse mirrors the JSON shape written by Error.WriteError.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// StepUpDecisionResponse reports the MFA exemption pipeline outcome for an
// authentication attempt.
type StepUpDecisionResponse struct {
	ChallengeRequired bool   `json:"challenge_required"`
	ExemptedBy        string `json:"exempted_by,omitempty"`
}

// MFAEnrollResponse returns TOTP enrollment material.
type MFAEnrollResponse struct {
	Secret  string `json:"secret"`
	QRCode  string `json:"qr_code"`
	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}

// CreateClientRequest registers an OAuth2 client within a security domain.
// Validity overrides of zero (or negative) fall back to the system defaults.
type CreateClientRequest struct {
	ClientID                    string   `json:"client_id"`
	Name                        string   `json:"name"`
	Domain                      string   `json:"domain"`
	Confidential                bool     `json:"confidential"`
	Scopes                      []string `json:"scopes"`
	AccessTokenValiditySeconds  int      `json:"access_token_validity_seconds,omitempty"`
	RefreshTokenValiditySeconds int      `json:"refresh_token_validity_seconds,omitempty"`
}

// CreateClientResponse returns the registered client and, for confidential
// clients, the plaintext secret (shown only once).
type CreateClientResponse struct {
	ID           string `json:"id"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// UpdateClientRequest mutates a client's scopes and validity overrides.
type UpdateClientRequest struct {
	Name                        string   `json:"name,omitempty"`
	Scopes                      []string `json:"scopes,omitempty"`
	AccessTokenValiditySeconds  *int     `json:"access_token_validity_seconds,omitempty"`
	RefreshTokenValiditySeconds *int     `json:"refresh_token_validity_seconds,omitempty"`
}

// CreateUserRequest registers an end user within a security domain.
type CreateUserRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password,omitempty"`
	Domain    string `json:"domain"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// UpdateUserRequest mutates a user's profile. A non-empty password
// replaces the stored credential.
type UpdateUserRequest struct {
	Password  string `json:"password,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// CreateDomainRequest registers a security domain.
type CreateDomainRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateScopeRequest registers an OAuth2 scope within a security domain.
type CreateScopeRequest struct {
	Key         string `json:"key"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Domain      string `json:"domain"`
}

// PageResponse is a paginated listing envelope.
type PageResponse[T any] struct {
	Data        []T `json:"data"`
	Page        int `json:"page"`
	Size        int `json:"size"`
	TotalCount  int `json:"total_count"`
	TotalPages  int `json:"total_pages"`
	CurrentSize int `json:"current_size"`
}
