package domain

import "time"

// APIKey represents an API key for programmatic access.
type APIKey struct {
	ID        string
	Principal string // identity attached to requests using this key
	Name      string
	KeyPrefix string // first 8 chars for identification
	KeyHash   string // SHA-256 of raw key; raw key is never stored
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// Expired reports whether the key is past its expiry.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}
