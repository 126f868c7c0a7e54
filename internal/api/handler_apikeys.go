package api

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// apiKeyWriter stores newly issued API keys.
type apiKeyWriter interface {
	Insert(ctx context.Context, key *domain.APIKey) error
}

type createAPIKeyRequest struct {
	// Principal is the identity attached to requests using this key.
	Principal string `json:"principal"`
	Name      string `json:"name"`
	// ExpiresInDays sets the key lifetime. Zero means the key never expires.
	ExpiresInDays int `json:"expires_in_days,omitempty"`
}

type createAPIKeyResponse struct {
	ID string `json:"id"`
	// Key is the raw key, shown once. Only its SHA-256 hash is stored.
	Key       string     `json:"key"`
	Principal string     `json:"principal"`
	Name      string     `json:"name"`
	KeyPrefix string     `json:"key_prefix"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// === API keys ===

// CreateAPIKey issues a new API key and returns the raw key once.
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	if h.keys == nil {
		writeError(w, http.StatusBadRequest, "api key store is not configured")
		return
	}
	var req createAPIKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	// Principals are lowercased and trimmed so a key resolves to the same
	// identity as the matching JWT subject.
	principal := strings.ToLower(strings.TrimSpace(req.Principal))
	if principal == "" {
		writeError(w, http.StatusBadRequest, "principal is required")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "api key name is required")
		return
	}
	if req.ExpiresInDays < 0 {
		writeError(w, http.StatusBadRequest, "expires_in_days must not be negative")
		return
	}

	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	rawKey := hex.EncodeToString(rawBytes)
	hash := sha256.Sum256([]byte(rawKey))

	key := &domain.APIKey{
		ID:        domain.NewID(),
		Principal: principal,
		Name:      req.Name,
		KeyPrefix: rawKey[:8],
		KeyHash:   hex.EncodeToString(hash[:]),
		CreatedAt: time.Now().UTC(),
	}
	if req.ExpiresInDays > 0 {
		exp := key.CreatedAt.AddDate(0, 0, req.ExpiresInDays)
		key.ExpiresAt = &exp
	}

	if err := h.keys.Insert(r.Context(), key); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	issuedBy := "unknown"
	if caller, ok := domain.PrincipalFromContext(r.Context()); ok {
		issuedBy = caller.Name
	}
	h.logger.Info("api key issued",
		"principal", key.Principal,
		"name", key.Name,
		"key_prefix", key.KeyPrefix,
		"issued_by", issuedBy)

	writeJSON(w, http.StatusCreated, createAPIKeyResponse{
		ID:        key.ID,
		Key:       rawKey,
		Principal: key.Principal,
		Name:      key.Name,
		KeyPrefix: key.KeyPrefix,
		ExpiresAt: key.ExpiresAt,
		CreatedAt: key.CreatedAt,
	})
}
