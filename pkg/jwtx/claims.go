// Package jwtx signs and verifies the bearer tokens protecting the
// administrative API. Gateway-issued access tokens are opaque and never pass
// through this package.
package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("jwtx: token expired")
	ErrInvalidToken = errors.New("jwtx: invalid token")
)

// Claims are the claims embedded in administrative bearer tokens.
type Claims struct {
	Scopes []string `json:"scp,omitempty"`

	jwt.RegisteredClaims
}

// NewClaims builds admin claims for subject with the given scopes and TTL.
func NewClaims(subject, issuer string, scopes []string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// ValidateExpiry reports whether the claims are still within their validity
// window.
func (c Claims) ValidateExpiry() error {
	if c.ExpiresAt == nil || time.Now().After(c.ExpiresAt.Time) {
		return ErrTokenExpired
	}
	return nil
}

// HasScope reports whether the claims carry the given scope.
func (c Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
