// Package domain holds the gateway's core entities: token records, clients,
// users, security domains and scopes.
package domain

import "time"

// SecurityDomain groups clients, users and scopes under one tenant-like
// boundary.
type SecurityDomain struct {
	ID          string
	Name        string
	Description string
	Enabled     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Scope is a registered OAuth2 scope within a security domain.
type Scope struct {
	ID          string
	Key         string
	Name        string
	Description string
	Domain      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Page is a paginated listing of items.
type Page[T any] struct {
	Data       []T
	Page       int
	Size       int
	TotalCount int
}
