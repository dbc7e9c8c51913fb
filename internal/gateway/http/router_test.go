package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/idgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/idgate/internal/gateway/service"
	"github.com/aussiebroadwan/idgate/internal/gateway/stepup"
	"github.com/aussiebroadwan/idgate/internal/gateway/store"
	"github.com/aussiebroadwan/idgate/internal/gateway/store/drivers/sqlite"
	"github.com/aussiebroadwan/idgate/pkg/jwtx"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router *Router
	store  store.Store
	signer jwtx.Signer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "gateway.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	hmac, err := jwtx.NewHMAC([]byte("test-secret-test-secret-test-secret!"), "idgate-test")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRouter(hmac, "test", st, metrics.New(), logger)

	users := &service.UserService{Store: st}
	r.TokenService = &service.TokenService{Store: st, Policy: service.NewPolicyResolver(0, 0)}
	r.ClientService = &service.ClientService{Store: st}
	r.UserService = users
	r.DomainService = &service.DomainService{Store: st}
	r.ScopeService = &service.ScopeService{Store: st}
	r.MFAService = &service.MFAService{Users: users, Issuer: "idgate-test"}
	r.StepUp = stepup.NewPipeline(
		stepup.ClientAbsentFilter{},
		stepup.UserWithoutMFAFilter{},
	)
	r.ApplyRoutes()

	return &testEnv{router: r, store: st, signer: hmac}
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	token, err := e.signer.Sign(jwtx.NewClaims("test-admin", "idgate-test", []string{AdminScope}, time.Hour, time.Now()))
	require.NoError(t, err)
	return token
}

func (e *testEnv) seed(t *testing.T) (clientID, clientSecret string) {
	t.Helper()
	ctx := t.Context()

	_, err := e.router.DomainService.Create(ctx, "default", "")
	require.NoError(t, err)

	_, err = e.router.ScopeService.Create(ctx, "default", "read", "Read", "")
	require.NoError(t, err)

	created, err := e.router.ClientService.Create(ctx, "default", "client-a", "Client A", []string{"read"}, true, 0, 0)
	require.NoError(t, err)
	return created.Client.ClientID, created.Secret
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTokenEndpoint_ClientCredentials(t *testing.T) {
	env := newTestEnv(t)
	clientID, secret := env.seed(t)

	rec := postForm(t, env.router, "/v1/oauth2/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {secret},
		"scope":         {"read"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body struct {
		Token     string `json:"token"`
		Scope     string `json:"scope"`
		ExpiresIn int64  `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	require.Equal(t, "read", body.Scope)
	require.Equal(t, int64(service.DefaultAccessTTL/time.Second), body.ExpiresIn)

	// Identical request reuses the same token.
	rec = postForm(t, env.router, "/v1/oauth2/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {secret},
		"scope":         {"read"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var second struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	require.Equal(t, body.Token, second.Token)
}

func TestTokenEndpoint_BadClientSecret(t *testing.T) {
	env := newTestEnv(t)
	clientID, _ := env.seed(t)

	rec := postForm(t, env.router, "/v1/oauth2/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {"wrong"},
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "invalid_client", body.Error)
}

func TestTokenEndpoint_UnknownScopeRejected(t *testing.T) {
	env := newTestEnv(t)
	clientID, secret := env.seed(t)

	rec := postForm(t, env.router, "/v1/oauth2/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {secret},
		"scope":         {"read nonexistent"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "invalid_scope", body.Error)
}

func TestTokenEndpoint_RefreshGrantRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := postForm(t, env.router, "/v1/oauth2/token", url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {"anything"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokenEndpoint_PasswordGrantWithStepUp(t *testing.T) {
	env := newTestEnv(t)
	clientID, secret := env.seed(t)
	ctx := t.Context()

	user, err := env.router.UserService.Create(ctx, "default", "alice", "hunter2-hunter2", "", "", "")
	require.NoError(t, err)

	form := url.Values{
		"grant_type":    {"password"},
		"client_id":     {clientID},
		"client_secret": {secret},
		"username":      {"alice"},
		"password":      {"hunter2-hunter2"},
		"scope":         {"read"},
	}

	// No MFA enrolled: the pipeline exempts and the grant succeeds.
	rec := postForm(t, env.router, "/v1/oauth2/token", form)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	stored, err := env.store.AccessTokens().GetByToken(ctx, body.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, stored.Subject)
}

func TestTokenEndpoint_PasswordGrantRequiresOTP(t *testing.T) {
	env := newTestEnv(t)
	clientID, secret := env.seed(t)
	ctx := t.Context()

	user, err := env.router.UserService.Create(ctx, "default", "bob", "hunter2-hunter2", "", "", "")
	require.NoError(t, err)

	enrollment, err := env.router.MFAService.Enroll(ctx, user.ID)
	require.NoError(t, err)
	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, env.router.MFAService.Activate(ctx, user.ID, code))

	form := url.Values{
		"grant_type":    {"password"},
		"client_id":     {clientID},
		"client_secret": {secret},
		"username":      {"bob"},
		"password":      {"hunter2-hunter2"},
	}

	// Enrolled user, nothing exempts: the grant must carry an OTP code.
	rec := postForm(t, env.router, "/v1/oauth2/token", form)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	form.Set("otp_code", "000000")
	rec = postForm(t, env.router, "/v1/oauth2/token", form)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	code, err = totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	form.Set("otp_code", code)
	rec = postForm(t, env.router, "/v1/oauth2/token", form)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenEndpoint_PasswordGrantEnrolledNotActivated(t *testing.T) {
	env := newTestEnv(t)
	clientID, secret := env.seed(t)
	ctx := t.Context()

	user, err := env.router.UserService.Create(ctx, "default", "carol", "hunter2-hunter2", "", "", "")
	require.NoError(t, err)

	// Enrolled but never activated: the factor is not live yet, so the
	// grant must pass without a code rather than demand a challenge the
	// user cannot complete.
	_, err = env.router.MFAService.Enroll(ctx, user.ID)
	require.NoError(t, err)

	rec := postForm(t, env.router, "/v1/oauth2/token", url.Values{
		"grant_type":    {"password"},
		"client_id":     {clientID},
		"client_secret": {secret},
		"username":      {"carol"},
		"password":      {"hunter2-hunter2"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestIntrospect_UnknownTokenIsInactive(t *testing.T) {
	env := newTestEnv(t)

	rec := postForm(t, env.router, "/v1/oauth2/introspect", url.Values{
		"token": {"no-such-token"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Active bool `json:"active"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Active)
}

func TestStepUpEvaluate(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/stepup/evaluate", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ChallengeRequired bool   `json:"challenge_required"`
		ExemptedBy        string `json:"exempted_by"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.ChallengeRequired)
	require.Equal(t, "client-absent", body.ExemptedBy)
}

func TestAdminSurface_RequiresBearer(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/domains", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/domains", nil)
	req.Header.Set("Authorization", "Bearer "+env.adminToken(t))
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminSurface_ClientLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var rd io.Reader
		if body != "" {
			rd = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, rd)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/v1/domains", `{"name":"default"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(http.MethodPost, "/v1/clients", `{"client_id":"client-a","name":"Client A","domain":"default","confidential":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ClientSecret string `json:"client_secret"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ClientSecret)

	rec = do(http.MethodGet, "/v1/clients/client-a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), created.ClientSecret)

	rec = do(http.MethodPatch, "/v1/clients/client-a", `{"access_token_validity_seconds":7200}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated struct {
		AccessValidity int `json:"access_token_validity_seconds"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, 7200, updated.AccessValidity)

	rec = do(http.MethodDelete, "/v1/clients/client-a", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(http.MethodGet, "/v1/clients/client-a", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminSurface_UserPasswordChange(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	ctx := t.Context()

	user, err := env.router.UserService.Create(ctx, "default", "dave", "old-password-1", "", "", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/v1/users/"+user.ID,
		strings.NewReader(`{"password":"new-password-1"}`))
	req.Header.Set("Authorization", "Bearer "+env.adminToken(t))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err = env.router.UserService.Authenticate(ctx, "default", "dave", "old-password-1")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = env.router.UserService.Authenticate(ctx, "default", "dave", "new-password-1")
	require.NoError(t, err)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"database":"ok"`)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenEndpoint_WrongContentType(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/oauth2/token", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
