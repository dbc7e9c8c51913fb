// Package cache provides a read-through cache over the client repository.
// Client records are read on every token request but change rarely, so a
// short-lived in-memory cache takes the hot path off the database.
package cache

import (
	"context"
	"time"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"
	"github.com/aussiebroadwan/idgate/internal/gateway/store"

	gocache "github.com/patrickmn/go-cache"
)

const (
	defaultTTL      = 30 * time.Second
	cleanupInterval = 5 * time.Minute
)

// Clients wraps a store.Clients with a TTL cache keyed by client_id.
// Writes invalidate eagerly; reads from other gateway instances converge
// within the TTL.
type Clients struct {
	inner store.Clients
	cache *gocache.Cache
}

var _ store.Clients = (*Clients)(nil)

// NewClients builds a cached view of the given repository. A non-positive
// ttl falls back to the default.
func NewClients(inner store.Clients, ttl time.Duration) *Clients {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Clients{
		inner: inner,
		cache: gocache.New(ttl, cleanupInterval),
	}
}

func (c *Clients) GetByClientID(ctx context.Context, clientID string) (domain.Client, error) {
	if cached, ok := c.cache.Get(clientID); ok {
		return cached.(domain.Client), nil
	}

	client, err := c.inner.GetByClientID(ctx, clientID)
	if err != nil {
		return domain.Client{}, err
	}

	c.cache.SetDefault(clientID, client)
	return client, nil
}

// ListByDomain always goes to the store; listings are admin-surface reads
// and must not serve stale membership.
func (c *Clients) ListByDomain(ctx context.Context, dom string) ([]domain.Client, error) {
	return c.inner.ListByDomain(ctx, dom)
}

func (c *Clients) Create(ctx context.Context, client domain.Client) error {
	return c.inner.Create(ctx, client)
}

func (c *Clients) Update(ctx context.Context, client domain.Client) error {
	if err := c.inner.Update(ctx, client); err != nil {
		return err
	}
	c.cache.Delete(client.ClientID)
	return nil
}

func (c *Clients) Delete(ctx context.Context, clientID string) error {
	if err := c.inner.Delete(ctx, clientID); err != nil {
		return err
	}
	c.cache.Delete(clientID)
	return nil
}
