package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testSecret() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func TestHMACSignAndVerify(t *testing.T) {
	t.Parallel()

	h, err := NewHMAC(testSecret(), "idgate-test")
	require.NoError(t, err)

	claims := NewClaims("admin", "idgate-test", []string{"admin:read", "admin:write"}, time.Minute, time.Now())
	raw, err := h.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	got, err := h.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "admin", got.Subject)
	require.True(t, got.HasScope("admin:write"))
	require.False(t, got.HasScope("admin:delete"))
	require.NoError(t, got.ValidateExpiry())
}

func TestHMACRejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewHMAC([]byte("too short"), "idgate-test")
	require.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	h, err := NewHMAC(testSecret(), "idgate-test")
	require.NoError(t, err)

	claims := NewClaims("admin", "idgate-test", nil, time.Minute, time.Now().Add(-time.Hour))
	raw, err := h.Sign(claims)
	require.NoError(t, err)

	_, err = h.Verify(raw)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsWrongIssuerAndTampering(t *testing.T) {
	t.Parallel()

	h, err := NewHMAC(testSecret(), "idgate-test")
	require.NoError(t, err)

	other, err := NewHMAC(testSecret(), "someone-else")
	require.NoError(t, err)

	raw, err := other.Sign(NewClaims("admin", "someone-else", nil, time.Minute, time.Now()))
	require.NoError(t, err)

	_, err = h.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)

	good, err := h.Sign(NewClaims("admin", "idgate-test", nil, time.Minute, time.Now()))
	require.NoError(t, err)

	tampered := good[:strings.LastIndex(good, ".")] + ".forgedsig"
	_, err = h.Verify(tampered)
	require.ErrorIs(t, err, ErrInvalidToken)
}
