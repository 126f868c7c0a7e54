package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

var _ domain.APIKeyStore = (*APIKeyRepo)(nil)

// APIKeyRepo stores hashed API keys in SQLite.
type APIKeyRepo struct {
	db *sql.DB
}

// NewAPIKeyRepo creates a new APIKeyRepo.
func NewAPIKeyRepo(db *sql.DB) *APIKeyRepo {
	return &APIKeyRepo{db: db}
}

// GetByHash returns the API key with the given SHA-256 hash.
func (r *APIKeyRepo) GetByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	var (
		key       domain.APIKey
		expiresAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, principal_name, name, key_prefix, key_hash, expires_at, created_at
		FROM api_keys WHERE key_hash = ?
	`, keyHash).Scan(&key.ID, &key.Principal, &key.Name, &key.KeyPrefix, &key.KeyHash, &expiresAt, &key.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		key.ExpiresAt = &t
	}
	return &key, nil
}

// Insert stores a new API key. The raw key must already be hashed.
func (r *APIKeyRepo) Insert(ctx context.Context, key *domain.APIKey) error {
	if key == nil {
		return domain.ErrValidation("api key is required")
	}
	if key.ID == "" {
		key.ID = domain.NewID()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}

	var expiresAt interface{}
	if key.ExpiresAt != nil {
		expiresAt = *key.ExpiresAt
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, principal_name, name, key_prefix, key_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, key.ID, key.Principal, key.Name, key.KeyPrefix, key.KeyHash, expiresAt, key.CreatedAt)
	if err != nil {
		return mapDBError(err)
	}
	return nil
}
