package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"
	"github.com/aussiebroadwan/idgate/internal/gateway/store"
	"github.com/aussiebroadwan/idgate/pkg/idx"
	"github.com/aussiebroadwan/idgate/pkg/slogx"
)

var (
	ErrDomainExists = errors.New("domain_already_exists")

	// Domain names end up in URLs and log fields; keep them simple.
	domainNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)
)

// DomainService manages security domains.
type DomainService struct {
	Store store.Store

	Now func() time.Time
}

func (s *DomainService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DomainService) Create(ctx context.Context, name, description string) (domain.SecurityDomain, error) {
	if !domainNameRe.MatchString(name) {
		return domain.SecurityDomain{}, fmt.Errorf("%w: domain name must be lowercase alphanumeric", ErrValidation)
	}

	now := s.now()
	d := domain.SecurityDomain{
		ID:          idx.New().String(),
		Name:        name,
		Description: description,
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.Store.Domains().Create(ctx, d); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.SecurityDomain{}, ErrDomainExists
		}
		return domain.SecurityDomain{}, fmt.Errorf("create domain: %w", err)
	}

	slogx.FromContext(ctx).Info("security domain created", slog.String("domain", name))
	return d, nil
}

func (s *DomainService) Get(ctx context.Context, name string) (domain.SecurityDomain, error) {
	d, err := s.Store.Domains().GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.SecurityDomain{}, ErrDomainUnknown
		}
		return domain.SecurityDomain{}, fmt.Errorf("get domain: %w", err)
	}
	return d, nil
}

func (s *DomainService) List(ctx context.Context) ([]domain.SecurityDomain, error) {
	return s.Store.Domains().List(ctx)
}

// SetEnabled toggles a domain. Disabled domains keep their data but their
// clients stop receiving tokens.
func (s *DomainService) SetEnabled(ctx context.Context, name string, enabled bool) (domain.SecurityDomain, error) {
	d, err := s.Get(ctx, name)
	if err != nil {
		return domain.SecurityDomain{}, err
	}

	d.Enabled = enabled
	d.UpdatedAt = s.now()
	if err := s.Store.Domains().Update(ctx, d); err != nil {
		return domain.SecurityDomain{}, fmt.Errorf("update domain: %w", err)
	}
	return d, nil
}

func (s *DomainService) Delete(ctx context.Context, name string) error {
	if err := s.Store.Domains().Delete(ctx, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrDomainUnknown
		}
		return fmt.Errorf("delete domain: %w", err)
	}
	return nil
}
