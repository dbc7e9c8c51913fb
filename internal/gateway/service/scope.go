package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"
	"github.com/aussiebroadwan/idgate/internal/gateway/store"
	"github.com/aussiebroadwan/idgate/pkg/idx"
)

var (
	ErrScopeNotFound = errors.New("scope_not_found")
	ErrScopeExists   = errors.New("scope_already_exists")

	// RFC 6749 scope-token chars minus the quote and backslash.
	scopeKeyRe = regexp.MustCompile(`^[\x21\x23-\x5b\x5d-\x7e]{1,128}$`)
)

// ScopeService manages the scope registry of each security domain.
type ScopeService struct {
	Store store.Store

	Now func() time.Time
}

func (s *ScopeService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ScopeService) Create(ctx context.Context, dom, key, name, description string) (domain.Scope, error) {
	if !scopeKeyRe.MatchString(key) {
		return domain.Scope{}, fmt.Errorf("%w: invalid scope key", ErrValidation)
	}

	if _, err := s.Store.Domains().GetByName(ctx, dom); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Scope{}, ErrDomainUnknown
		}
		return domain.Scope{}, fmt.Errorf("resolve domain: %w", err)
	}

	now := s.now()
	sc := domain.Scope{
		ID:          idx.New().String(),
		Key:         key,
		Name:        name,
		Description: description,
		Domain:      dom,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.Store.Scopes().Create(ctx, sc); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Scope{}, ErrScopeExists
		}
		return domain.Scope{}, fmt.Errorf("create scope: %w", err)
	}
	return sc, nil
}

func (s *ScopeService) List(ctx context.Context, dom string) ([]domain.Scope, error) {
	return s.Store.Scopes().ListByDomain(ctx, dom)
}

func (s *ScopeService) Update(ctx context.Context, dom, key, name, description string) (domain.Scope, error) {
	sc, err := s.Store.Scopes().GetByKeyAndDomain(ctx, key, dom)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Scope{}, ErrScopeNotFound
		}
		return domain.Scope{}, fmt.Errorf("get scope: %w", err)
	}

	sc.Name = name
	sc.Description = description
	sc.UpdatedAt = s.now()
	if err := s.Store.Scopes().Update(ctx, sc); err != nil {
		return domain.Scope{}, fmt.Errorf("update scope: %w", err)
	}
	return sc, nil
}

func (s *ScopeService) Delete(ctx context.Context, dom, key string) error {
	if err := s.Store.Scopes().Delete(ctx, key, dom); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrScopeNotFound
		}
		return fmt.Errorf("delete scope: %w", err)
	}
	return nil
}

// ValidateRequested checks that every requested scope is registered in the
// domain. An empty request is always valid.
func (s *ScopeService) ValidateRequested(ctx context.Context, dom string, requested []string) error {
	if len(requested) == 0 {
		return nil
	}

	registered, err := s.Store.Scopes().ListByDomain(ctx, dom)
	if err != nil {
		return fmt.Errorf("list scopes: %w", err)
	}

	known := make(map[string]struct{}, len(registered))
	for _, sc := range registered {
		known[sc.Key] = struct{}{}
	}
	for _, key := range requested {
		if _, ok := known[key]; !ok {
			return fmt.Errorf("%w: scope %q not registered", ErrScopeNotFound, key)
		}
	}
	return nil
}
