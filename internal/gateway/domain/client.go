package domain

import "time"

// Client is a registered OAuth2 client within a security domain.
type Client struct {
	ID         string
	ClientID   string // public identifier used in token requests
	Name       string
	SecretHash string // empty for public clients
	Domain     string
	Scopes     []string

	// Per-client validity overrides in seconds. Zero or negative means
	// "use the system default".
	AccessTokenValiditySeconds  int
	RefreshTokenValiditySeconds int

	CreatedAt time.Time
	UpdatedAt time.Time
}
