package domain

import "github.com/google/uuid"

// NewID mints a time-ordered UUID (v7) for runs and other server-owned
// records, so IDs sort roughly by creation time.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
