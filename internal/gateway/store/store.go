// Package store defines the persistence contracts consumed by the gateway
// services. Concrete drivers live under drivers/.
package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. It exposes sub-repositories to
// keep concerns tidy and testable; drivers (sqlite today) implement it.
//
// Absence is reported as ErrNotFound, never as a driver error: the service
// layer relies on that distinction to implement its zero-or-one semantics.
type Store interface {
	AccessTokens() AccessTokens
	RefreshTokens() RefreshTokens
	Clients() Clients
	Users() Users
	Domains() Domains
	Scopes() Scopes

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type AccessTokens interface {
	// GetByToken returns the record for an exact token value.
	GetByToken(ctx context.Context, token string) (domain.AccessToken, error)

	// FindByCriteria is the reuse lookup: zero-or-one record matching the
	// criteria. When several records match (a known race with concurrent
	// creates) the tie-break is stable: most recently created wins.
	FindByCriteria(ctx context.Context, c domain.TokenCriteria) (domain.AccessToken, error)

	// Create persists a freshly minted record.
	Create(ctx context.Context, t domain.AccessToken) error

	// Delete removes the record for the given token value.
	Delete(ctx context.Context, token string) error

	// DeleteExpired is housekeeping.
	DeleteExpired(ctx context.Context) error
}

type RefreshTokens interface {
	Create(ctx context.Context, t domain.RefreshToken) error
	GetByToken(ctx context.Context, token string) (domain.RefreshToken, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}

type Clients interface {
	// GetByClientID fetches a client by its public client_id.
	GetByClientID(ctx context.Context, clientID string) (domain.Client, error)

	// ListByDomain returns all clients of a security domain, newest first.
	ListByDomain(ctx context.Context, dom string) ([]domain.Client, error)

	Create(ctx context.Context, c domain.Client) error
	Update(ctx context.Context, c domain.Client) error
	Delete(ctx context.Context, clientID string) error
}

type Users interface {
	GetByID(ctx context.Context, id string) (domain.User, error)

	// GetByUsernameAndDomain is the login-time lookup.
	GetByUsernameAndDomain(ctx context.Context, username, dom string) (domain.User, error)

	// ListByDomain returns all users of a security domain.
	ListByDomain(ctx context.Context, dom string) ([]domain.User, error)

	// PageByDomain returns one page of a domain's users. Page is zero-based.
	PageByDomain(ctx context.Context, dom string, page, size int) (domain.Page[domain.User], error)

	Create(ctx context.Context, u domain.User) error
	Update(ctx context.Context, u domain.User) error
	Delete(ctx context.Context, id string) error
}

type Domains interface {
	GetByName(ctx context.Context, name string) (domain.SecurityDomain, error)
	List(ctx context.Context) ([]domain.SecurityDomain, error)
	Create(ctx context.Context, d domain.SecurityDomain) error
	Update(ctx context.Context, d domain.SecurityDomain) error
	Delete(ctx context.Context, name string) error
}

type Scopes interface {
	GetByKeyAndDomain(ctx context.Context, key, dom string) (domain.Scope, error)
	ListByDomain(ctx context.Context, dom string) ([]domain.Scope, error)
	Create(ctx context.Context, s domain.Scope) error
	Update(ctx context.Context, s domain.Scope) error
	Delete(ctx context.Context, key, dom string) error
}
