package domain

import (
	"slices"
	"strings"
	"time"
)

// AccessToken models a stored access token record. The token value is an
// opaque credential; expireAt is always strictly after createdAt.
type AccessToken struct {
	ID           string
	Token        string
	ClientID     string
	Subject      string // empty for client-only grants
	Scopes       []string
	RefreshToken string // linked refresh token value, empty when none
	CreatedAt    time.Time
	ExpireAt     time.Time
}

// Expired reports whether the record's expiry has passed at the given time.
func (t AccessToken) Expired(now time.Time) bool {
	return t.ExpireAt.Before(now)
}

// RefreshToken models a stored refresh token record. Its lifetime is
// independent of, but created alongside, its paired access token.
type RefreshToken struct {
	ID        string
	Token     string
	CreatedAt time.Time
	ExpireAt  time.Time
}

// TokenRequest carries the inbound token-issuance parameters.
type TokenRequest struct {
	ClientID            string
	Scopes              []string
	Subject             string
	ClientOnly          bool
	SupportRefreshToken bool
}

// Criteria derives the reuse-lookup criteria from the request. The subject
// only participates when the request is not client-only.
func (r TokenRequest) Criteria() TokenCriteria {
	c := TokenCriteria{ClientID: r.ClientID, Scopes: r.Scopes}
	if !r.ClientOnly {
		c.Subject = r.Subject
	}
	return c
}

// TokenCriteria is a query specification used to find a reusable token, not
// a stored entity. Two requests with identical criteria are the same logical
// grant for reuse purposes. Grant type deliberately does not participate.
type TokenCriteria struct {
	ClientID string
	Scopes   []string
	Subject  string // empty means client-only
}

// ScopeKey returns the canonical (sorted, deduplicated, space-joined) form
// of the scope set. Stored records and criteria compare scopes through this
// form so that scope order in a request is irrelevant.
func (c TokenCriteria) ScopeKey() string {
	return CanonicalScopes(c.Scopes)
}

// CanonicalScopes sorts and deduplicates a scope set into its canonical
// space-joined representation.
func CanonicalScopes(scopes []string) string {
	if len(scopes) == 0 {
		return ""
	}
	out := make([]string, 0, len(scopes))
	seen := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	slices.Sort(out)
	return strings.Join(out, " ")
}

// TokenView is the external view of an access token record: the opaque
// token, the space-joined scope string, the remaining validity in whole
// seconds (clamped at zero), and the linked refresh token value if any.
type TokenView struct {
	Token        string
	Scope        string
	ExpiresIn    int64
	RefreshToken string
}

// ViewOf projects a stored record into its external view at the given time.
func ViewOf(t AccessToken, now time.Time) TokenView {
	remaining := int64(t.ExpireAt.Sub(now) / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	return TokenView{
		Token:        t.Token,
		Scope:        strings.Join(t.Scopes, " "),
		ExpiresIn:    remaining,
		RefreshToken: t.RefreshToken,
	}
}
