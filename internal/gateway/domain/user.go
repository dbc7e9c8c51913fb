package domain

import "time"

// User is an end user registered within a security domain.
type User struct {
	ID           string
	Username     string
	Domain       string
	PasswordHash string // argon2id encoded, empty for federated users
	FirstName    string
	LastName     string
	Email        string
	Source       string // identity provider source, empty for local users
	MFASecret    string // TOTP secret, empty until enrolled
	MFAEnabledAt *time.Time
	LoggedAt     *time.Time
	LoginsCount  int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
