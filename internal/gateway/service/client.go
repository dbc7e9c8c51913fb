package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"
	"github.com/aussiebroadwan/idgate/internal/gateway/store"
	"github.com/aussiebroadwan/idgate/pkg/cryptox"
	"github.com/aussiebroadwan/idgate/pkg/idx"
	"github.com/aussiebroadwan/idgate/pkg/slogx"
)

var (
	ErrClientExists  = errors.New("client_already_exists")
	ErrDomainUnknown = errors.New("unknown_domain")
	ErrValidation    = errors.New("validation_failed")
)

// ClientService manages client registrations within security domains.
type ClientService struct {
	Store store.Store

	Now func() time.Time
}

func (s *ClientService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreatedClient pairs a stored client with its plaintext secret, returned
// exactly once at creation time.
type CreatedClient struct {
	Client domain.Client
	Secret string
}

// Create registers a client. Confidential clients get a generated secret,
// returned in plaintext once; only its argon2id hash is stored.
func (s *ClientService) Create(ctx context.Context, dom, clientID, name string, scopes []string, confidential bool, accessValidity, refreshValidity int) (CreatedClient, error) {
	clientID = strings.TrimSpace(clientID)
	name = strings.TrimSpace(name)
	if clientID == "" || name == "" {
		return CreatedClient{}, fmt.Errorf("%w: client_id and name are required", ErrValidation)
	}

	if _, err := s.Store.Domains().GetByName(ctx, dom); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return CreatedClient{}, ErrDomainUnknown
		}
		return CreatedClient{}, fmt.Errorf("resolve domain: %w", err)
	}

	now := s.now()
	client := domain.Client{
		ID:                          idx.New().String(),
		ClientID:                    clientID,
		Name:                        name,
		Domain:                      dom,
		Scopes:                      scopes,
		AccessTokenValiditySeconds:  accessValidity,
		RefreshTokenValiditySeconds: refreshValidity,
		CreatedAt:                   now,
		UpdatedAt:                   now,
	}

	var secret string
	if confidential {
		secret = cryptox.MustGenerateToken(cryptox.TokenSize256)
		hash, err := cryptox.HashSecret(secret)
		if err != nil {
			return CreatedClient{}, fmt.Errorf("hash client secret: %w", err)
		}
		client.SecretHash = hash
	}

	if err := s.Store.Clients().Create(ctx, client); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return CreatedClient{}, ErrClientExists
		}
		return CreatedClient{}, fmt.Errorf("create client: %w", err)
	}

	slogx.FromContext(ctx).Info("client registered",
		slog.String("client_id", clientID),
		slog.String("domain", dom),
		slog.Bool("confidential", confidential),
	)
	return CreatedClient{Client: client, Secret: secret}, nil
}

func (s *ClientService) Get(ctx context.Context, clientID string) (domain.Client, error) {
	c, err := s.Store.Clients().GetByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrClientNotFound
		}
		return domain.Client{}, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

func (s *ClientService) List(ctx context.Context, dom string) ([]domain.Client, error) {
	return s.Store.Clients().ListByDomain(ctx, dom)
}

// Update replaces the mutable fields of a client. Nil slices and zero
// validities are written as given; callers patch from the current record.
func (s *ClientService) Update(ctx context.Context, clientID, name string, scopes []string, accessValidity, refreshValidity int) (domain.Client, error) {
	c, err := s.Get(ctx, clientID)
	if err != nil {
		return domain.Client{}, err
	}

	if name = strings.TrimSpace(name); name != "" {
		c.Name = name
	}
	if scopes != nil {
		c.Scopes = scopes
	}
	c.AccessTokenValiditySeconds = accessValidity
	c.RefreshTokenValiditySeconds = refreshValidity
	c.UpdatedAt = s.now()

	if err := s.Store.Clients().Update(ctx, c); err != nil {
		return domain.Client{}, fmt.Errorf("update client: %w", err)
	}
	return c, nil
}

func (s *ClientService) Delete(ctx context.Context, clientID string) error {
	if err := s.Store.Clients().Delete(ctx, clientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("delete client: %w", err)
	}
	slogx.FromContext(ctx).Info("client deleted", slog.String("client_id", clientID))
	return nil
}

// VerifySecret checks a presented client secret against the stored hash.
// Public clients (no stored hash) accept only an empty secret.
func (s *ClientService) VerifySecret(ctx context.Context, clientID, secret string) error {
	c, err := s.Get(ctx, clientID)
	if err != nil {
		return err
	}
	if c.SecretHash == "" {
		if secret != "" {
			return ErrClientNotFound
		}
		return nil
	}
	if err := cryptox.VerifySecret(secret, c.SecretHash); err != nil {
		return ErrClientNotFound
	}
	return nil
}
