package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/idgate/internal/gateway/store"

	"github.com/stretchr/testify/require"
)

func seedDomain(t *testing.T, s store.Store, name string) {
	t.Helper()

	svc := &DomainService{Store: s}
	_, err := svc.Create(context.Background(), name, "")
	require.NoError(t, err)
}

func TestClientService_CreateConfidential(t *testing.T) {
	s := newTestStore(t)
	seedDomain(t, s, "default")
	svc := &ClientService{Store: s}
	ctx := context.Background()

	created, err := svc.Create(ctx, "default", "client-a", "Client A", []string{"read"}, true, 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, created.Secret)
	require.NotEmpty(t, created.Client.SecretHash)
	require.NotEqual(t, created.Secret, created.Client.SecretHash)

	// The plaintext secret verifies; anything else does not.
	require.NoError(t, svc.VerifySecret(ctx, "client-a", created.Secret))
	require.ErrorIs(t, svc.VerifySecret(ctx, "client-a", "wrong"), ErrClientNotFound)
}

func TestClientService_CreatePublic(t *testing.T) {
	s := newTestStore(t)
	seedDomain(t, s, "default")
	svc := &ClientService{Store: s}
	ctx := context.Background()

	created, err := svc.Create(ctx, "default", "spa", "Browser App", nil, false, 0, 0)
	require.NoError(t, err)
	require.Empty(t, created.Secret)
	require.Empty(t, created.Client.SecretHash)

	require.NoError(t, svc.VerifySecret(ctx, "spa", ""))
	require.ErrorIs(t, svc.VerifySecret(ctx, "spa", "anything"), ErrClientNotFound)
}

func TestClientService_CreateValidation(t *testing.T) {
	s := newTestStore(t)
	seedDomain(t, s, "default")
	svc := &ClientService{Store: s}
	ctx := context.Background()

	_, err := svc.Create(ctx, "default", "", "Client A", nil, false, 0, 0)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, "no-such-domain", "client-a", "Client A", nil, false, 0, 0)
	require.ErrorIs(t, err, ErrDomainUnknown)

	_, err = svc.Create(ctx, "default", "client-a", "Client A", nil, false, 0, 0)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "default", "client-a", "Again", nil, false, 0, 0)
	require.ErrorIs(t, err, ErrClientExists)
}

func TestUserService_CreateAndAuthenticate(t *testing.T) {
	s := newTestStore(t)
	seedDomain(t, s, "default")
	svc := &UserService{Store: s}
	ctx := context.Background()

	u, err := svc.Create(ctx, "default", "alice", "hunter2-hunter2", "Alice", "Example", "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, u.PasswordHash)
	require.NotEqual(t, "hunter2-hunter2", u.PasswordHash)

	authed, err := svc.Authenticate(ctx, "default", "alice", "hunter2-hunter2")
	require.NoError(t, err)
	require.Equal(t, int64(1), authed.LoginsCount)
	require.NotNil(t, authed.LoggedAt)

	_, err = svc.Authenticate(ctx, "default", "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "default", "ghost", "hunter2-hunter2")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_FederatedCannotAuthenticateLocally(t *testing.T) {
	s := newTestStore(t)
	seedDomain(t, s, "default")
	svc := &UserService{Store: s}
	ctx := context.Background()

	_, err := svc.CreateFederated(ctx, "default", "bob", "corp-saml", "bob@example.com")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "default", "bob", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_SetPassword(t *testing.T) {
	s := newTestStore(t)
	seedDomain(t, s, "default")
	svc := &UserService{Store: s}
	ctx := context.Background()

	u, err := svc.Create(ctx, "default", "alice", "old-password-1", "", "", "")
	require.NoError(t, err)

	_, err = svc.SetPassword(ctx, u.ID, "new-password-1")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "default", "alice", "old-password-1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "default", "alice", "new-password-1")
	require.NoError(t, err)

	_, err = svc.SetPassword(ctx, u.ID, "")
	require.ErrorIs(t, err, ErrValidation)

	fed, err := svc.CreateFederated(ctx, "default", "bob", "corp-saml", "bob@example.com")
	require.NoError(t, err)
	_, err = svc.SetPassword(ctx, fed.ID, "whatever-pass-1")
	require.ErrorIs(t, err, ErrValidation)
}

func TestDomainService_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	svc := &DomainService{Store: s}
	ctx := context.Background()

	d, err := svc.Create(ctx, "tenant-one", "first tenant")
	require.NoError(t, err)
	require.True(t, d.Enabled)

	_, err = svc.Create(ctx, "tenant-one", "again")
	require.ErrorIs(t, err, ErrDomainExists)

	_, err = svc.Create(ctx, "Bad Name!", "")
	require.ErrorIs(t, err, ErrValidation)

	d, err = svc.SetEnabled(ctx, "tenant-one", false)
	require.NoError(t, err)
	require.False(t, d.Enabled)

	require.NoError(t, svc.Delete(ctx, "tenant-one"))
	require.ErrorIs(t, svc.Delete(ctx, "tenant-one"), ErrDomainUnknown)
}

func TestScopeService_ValidateRequested(t *testing.T) {
	s := newTestStore(t)
	seedDomain(t, s, "default")
	svc := &ScopeService{Store: s}
	ctx := context.Background()

	_, err := svc.Create(ctx, "default", "read", "Read", "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "default", "write", "Write", "")
	require.NoError(t, err)

	require.NoError(t, svc.ValidateRequested(ctx, "default", nil))
	require.NoError(t, svc.ValidateRequested(ctx, "default", []string{"read", "write"}))
	require.ErrorIs(t, svc.ValidateRequested(ctx, "default", []string{"read", "admin"}), ErrScopeNotFound)
}

func TestScopeService_KeyValidation(t *testing.T) {
	s := newTestStore(t)
	seedDomain(t, s, "default")
	svc := &ScopeService{Store: s}
	ctx := context.Background()

	_, err := svc.Create(ctx, "default", `bad"scope`, "", "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, "default", "", "", "")
	require.ErrorIs(t, err, ErrValidation)
}
