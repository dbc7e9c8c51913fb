// Package service implements the gateway's business logic on top of the
// store contracts.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"
	"github.com/aussiebroadwan/idgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/idgate/internal/gateway/store"
	"github.com/aussiebroadwan/idgate/pkg/cryptox"
	"github.com/aussiebroadwan/idgate/pkg/idx"
	"github.com/aussiebroadwan/idgate/pkg/slogx"
)

var (
	ErrClientNotFound = errors.New("invalid_client")

	// ErrRefreshNotSupported marks the refresh grant as recognised but not
	// implemented. Expired grants are renewed through Create instead.
	ErrRefreshNotSupported = errors.New("unsupported_grant_type")
)

// TokenService issues and looks up opaque access tokens. Issuance reuses a
// still-valid token for the same logical grant, renews an expired one, and
// mints from scratch otherwise.
//
// The reuse lookup and the subsequent write are not one atomic step;
// concurrent identical requests can each mint. The store's criteria lookup
// tie-breaks to the newest record so duplicates converge.
type TokenService struct {
	Store   store.Store
	Clients store.Clients
	Policy  *PolicyResolver
	Metrics *metrics.Metrics

	// Now is the clock; tests inject a fixed or advancing time.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) clients() store.Clients {
	if s.Clients != nil {
		return s.Clients
	}
	return s.Store.Clients()
}

// Create resolves the token request to exactly one live access token.
//
// A valid token matching the request's criteria is returned unchanged, with
// its original expiry; issuance never extends a grant. An expired match is
// deleted together with its linked refresh token and a replacement is
// minted. No match mints a fresh token.
func (s *TokenService) Create(ctx context.Context, req domain.TokenRequest) (domain.TokenView, error) {
	now := s.now()
	l := slogx.FromContext(ctx)

	existing, err := s.Store.AccessTokens().FindByCriteria(ctx, req.Criteria())
	switch {
	case err == nil && !existing.Expired(now):
		l.Debug("access token reused",
			slog.String("client_id", req.ClientID),
			slog.String("token_id", existing.ID),
		)
		s.count(metrics.OutcomeReused)
		return domain.ViewOf(existing, now), nil

	case err == nil:
		// Expired: remove the stale pair before minting. Access token
		// first so a crash between the two deletes never leaves a
		// live access token pointing at a deleted refresh token.
		if err := s.Store.AccessTokens().Delete(ctx, existing.Token); err != nil {
			l.Error("delete expired access token failed", "err", err)
			return domain.TokenView{}, fmt.Errorf("delete expired access token: %w", err)
		}
		if existing.RefreshToken != "" {
			if err := s.Store.RefreshTokens().Delete(ctx, existing.RefreshToken); err != nil {
				l.Error("delete linked refresh token failed", "err", err)
				return domain.TokenView{}, fmt.Errorf("delete linked refresh token: %w", err)
			}
		}
		l.Info("expired access token renewed",
			slog.String("client_id", req.ClientID),
			slog.String("token_id", existing.ID),
		)
		s.count(metrics.OutcomeRenewed)
		return s.mint(ctx, req, now)

	case errors.Is(err, store.ErrNotFound):
		s.count(metrics.OutcomeMinted)
		return s.mint(ctx, req, now)

	default:
		l.Error("token criteria lookup failed", "err", err)
		return domain.TokenView{}, fmt.Errorf("find token by criteria: %w", err)
	}
}

// mint creates a new access token, and a refresh token when the request
// asks for one. The client is resolved here and only here: reuse of a valid
// token never touches the client record.
func (s *TokenService) mint(ctx context.Context, req domain.TokenRequest, now time.Time) (domain.TokenView, error) {
	l := slogx.FromContext(ctx)

	client, err := s.clients().GetByClientID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenView{}, ErrClientNotFound
		}
		l.Error("client resolution failed", "err", err)
		return domain.TokenView{}, fmt.Errorf("resolve client: %w", err)
	}

	// A disabled security domain stops issuing tokens for its clients. A
	// missing domain record does not block issuance.
	if d, err := s.Store.Domains().GetByName(ctx, client.Domain); err == nil && !d.Enabled {
		return domain.TokenView{}, ErrClientNotFound
	}

	token := domain.AccessToken{
		ID:        idx.New().String(),
		Token:     cryptox.MustGenerateToken(cryptox.TokenSize256),
		ClientID:  req.ClientID,
		Scopes:    req.Scopes,
		CreatedAt: now,
		ExpireAt:  now.Add(s.Policy.AccessTokenTTL(client)),
	}
	if !req.ClientOnly {
		token.Subject = req.Subject
	}

	if req.SupportRefreshToken {
		refresh := domain.RefreshToken{
			ID:        idx.New().String(),
			Token:     cryptox.MustGenerateToken(cryptox.TokenSize256),
			CreatedAt: now,
			ExpireAt:  now.Add(s.Policy.RefreshTokenTTL(client)),
		}
		if err := s.Store.RefreshTokens().Create(ctx, refresh); err != nil {
			l.Error("create refresh token failed", "err", err)
			return domain.TokenView{}, fmt.Errorf("create refresh token: %w", err)
		}
		token.RefreshToken = refresh.Token
	}

	if err := s.Store.AccessTokens().Create(ctx, token); err != nil {
		l.Error("create access token failed", "err", err)
		return domain.TokenView{}, fmt.Errorf("create access token: %w", err)
	}

	l.Info("access token minted",
		slog.String("client_id", req.ClientID),
		slog.String("token_id", token.ID),
		slog.Bool("client_only", req.ClientOnly),
		slog.Bool("refresh", req.SupportRefreshToken),
	)
	return domain.ViewOf(token, now), nil
}

// Get looks up a token by its exact value. An unknown token returns a nil
// view and no error; absence is a normal answer here, not a failure. An
// expired token is still returned, with ExpiresIn clamped to zero.
func (s *TokenService) Get(ctx context.Context, token string) (*domain.TokenView, error) {
	record, err := s.Store.AccessTokens().GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Log the fingerprint, never the token value itself.
			slogx.FromContext(ctx).Debug("unknown token looked up",
				slog.String("fingerprint", cryptox.FingerprintToken(token)),
			)
			return nil, nil
		}
		slogx.FromContext(ctx).Error("token lookup failed", "err", err)
		return nil, fmt.Errorf("get token: %w", err)
	}

	view := domain.ViewOf(record, s.now())
	return &view, nil
}

// Refresh is not supported. Renewal happens through Create when the
// matching token has expired.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (domain.TokenView, error) {
	return domain.TokenView{}, ErrRefreshNotSupported
}

func (s *TokenService) count(outcome string) {
	if s.Metrics != nil {
		s.Metrics.TokensIssued.WithLabelValues(outcome).Inc()
	}
}
