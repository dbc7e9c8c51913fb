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
	ErrUserNotFound       = errors.New("user_not_found")
	ErrUserExists         = errors.New("user_already_exists")
	ErrInvalidCredentials = errors.New("invalid_credentials")
)

// UserService manages end users within security domains.
type UserService struct {
	Store store.Store

	Now func() time.Time
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create registers a local user with an argon2id-hashed password. Federated
// users come in through CreateFederated instead.
func (s *UserService) Create(ctx context.Context, dom, username, password, firstName, lastName, email string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	if _, err := s.Store.Domains().GetByName(ctx, dom); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrDomainUnknown
		}
		return domain.User{}, fmt.Errorf("resolve domain: %w", err)
	}

	hash, err := cryptox.HashSecret(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Domain:       dom,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	slogx.FromContext(ctx).Info("user registered",
		slog.String("username", username),
		slog.String("domain", dom),
	)
	return u, nil
}

// CreateFederated registers a user sourced from an external identity
// provider. No local password is stored.
func (s *UserService) CreateFederated(ctx context.Context, dom, username, source, email string) (domain.User, error) {
	username = strings.TrimSpace(username)
	source = strings.TrimSpace(source)
	if username == "" || source == "" {
		return domain.User{}, fmt.Errorf("%w: username and source are required", ErrValidation)
	}

	now := s.now()
	u := domain.User{
		ID:        idx.New().String(),
		Username:  username,
		Domain:    dom,
		Email:     email,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.Users().Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, fmt.Errorf("create federated user: %w", err)
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	u, err := s.Store.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserService) Page(ctx context.Context, dom string, page, size int) (domain.Page[domain.User], error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 100 {
		size = 25
	}
	return s.Store.Users().PageByDomain(ctx, dom, page, size)
}

// Update patches profile fields. Username, domain and credentials are
// immutable through this path.
func (s *UserService) Update(ctx context.Context, id, firstName, lastName, email string) (domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	u.FirstName = firstName
	u.LastName = lastName
	u.Email = email
	u.UpdatedAt = s.now()

	if err := s.Store.Users().Update(ctx, u); err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// SetPassword replaces a user's password with a fresh argon2id hash.
// Federated users carry no local credential and are rejected.
func (s *UserService) SetPassword(ctx context.Context, id, password string) (domain.User, error) {
	if password == "" {
		return domain.User{}, fmt.Errorf("%w: password is required", ErrValidation)
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if u.Source != "" {
		return domain.User{}, fmt.Errorf("%w: federated users have no local password", ErrValidation)
	}

	hash, err := cryptox.HashSecret(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now()

	if err := s.Store.Users().Update(ctx, u); err != nil {
		return domain.User{}, fmt.Errorf("update password: %w", err)
	}

	slogx.FromContext(ctx).Info("password changed",
		slog.String("username", u.Username),
		slog.String("domain", u.Domain),
	)
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.Store.Users().Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Authenticate verifies a username/password pair within a domain and, on
// success, records the login on the user record.
func (s *UserService) Authenticate(ctx context.Context, dom, username, password string) (domain.User, error) {
	u, err := s.Store.Users().GetByUsernameAndDomain(ctx, username, dom)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if u.PasswordHash == "" {
		// Federated users do not authenticate locally.
		return domain.User{}, ErrInvalidCredentials
	}
	if err := cryptox.VerifySecret(password, u.PasswordHash); err != nil {
		slogx.FromContext(ctx).Info("login failed",
			slog.String("username", username),
			slog.String("domain", dom),
		)
		return domain.User{}, ErrInvalidCredentials
	}

	now := s.now()
	u.LoggedAt = &now
	u.LoginsCount++
	u.UpdatedAt = now
	if err := s.Store.Users().Update(ctx, u); err != nil {
		return domain.User{}, fmt.Errorf("record login: %w", err)
	}
	return u, nil
}
