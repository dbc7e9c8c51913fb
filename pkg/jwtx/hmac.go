package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs admin claims into a compact token string.
type Signer interface {
	Sign(claims Claims) (string, error)
}

// Verifier parses and verifies a compact token string.
type Verifier interface {
	Verify(raw string) (Claims, error)
}

// HMAC signs and verifies admin tokens with HS256 and a shared secret.
// The secret comes from configuration; there is no key rotation on the
// admin surface.
type HMAC struct {
	secret []byte
	issuer string
}

func NewHMAC(secret []byte, issuer string) (*HMAC, error) {
	if len(secret) < 32 {
		return nil, errors.New("jwtx: hmac secret must be at least 32 bytes")
	}
	return &HMAC{secret: secret, issuer: issuer}, nil
}

func (h *HMAC) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

func (h *HMAC) Verify(raw string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return h.secret, nil
	}, jwt.WithIssuer(h.issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
