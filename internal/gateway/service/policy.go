package service

import (
	"time"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"
)

const (
	// DefaultAccessTTL applies when a client carries no access token
	// validity override.
	DefaultAccessTTL = 12 * time.Hour

	// DefaultRefreshTTL applies when a client carries no refresh token
	// validity override.
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// PolicyResolver answers validity questions for a client. Per-client
// overrides win when positive; otherwise the configured defaults apply.
type PolicyResolver struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewPolicyResolver builds a resolver with the given defaults, falling back
// to the package defaults for non-positive values.
func NewPolicyResolver(accessTTL, refreshTTL time.Duration) *PolicyResolver {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &PolicyResolver{AccessTTL: accessTTL, RefreshTTL: refreshTTL}
}

// AccessTokenTTL returns the access token lifetime for the client.
func (p *PolicyResolver) AccessTokenTTL(c domain.Client) time.Duration {
	if c.AccessTokenValiditySeconds > 0 {
		return time.Duration(c.AccessTokenValiditySeconds) * time.Second
	}
	return p.AccessTTL
}

// RefreshTokenTTL returns the refresh token lifetime for the client.
func (p *PolicyResolver) RefreshTokenTTL(c domain.Client) time.Duration {
	if c.RefreshTokenValiditySeconds > 0 {
		return time.Duration(c.RefreshTokenValiditySeconds) * time.Second
	}
	return p.RefreshTTL
}
