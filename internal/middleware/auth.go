package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/config"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// APIKeyLookup resolves a hashed API key to the stored key record.
// Satisfied by domain.APIKeyStore.
type APIKeyLookup interface {
	GetByHash(ctx context.Context, keyHash string) (*domain.APIKey, error)
}

// Authenticator authenticates requests with a JWT Bearer token or an API key
// and stores the resolved principal in the request context. A valid Bearer
// token takes precedence; the API key header is consulted only when no usable
// Bearer token is present.
type Authenticator struct {
	validator JWTValidator
	keys      APIKeyLookup
	cfg       config.AuthConfig
	logger    *slog.Logger
}

// NewAuthenticator builds an Authenticator. validator and keys may each be
// nil, which disables the corresponding credential type.
func NewAuthenticator(validator JWTValidator, keys APIKeyLookup, cfg config.AuthConfig, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = "X-API-Key"
	}
	return &Authenticator{
		validator: validator,
		keys:      keys,
		cfg:       cfg,
		logger:    logger,
	}
}

// Middleware returns the HTTP middleware. Requests with no valid credential
// receive a 401 JSON response and never reach the next handler.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, ok := a.fromBearer(r); ok {
				next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), p)))
				return
			}
			if p, ok := a.fromAPIKey(r); ok {
				next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), p)))
				return
			}
			writeUnauthorized(w)
		})
	}
}

func (a *Authenticator) fromBearer(r *http.Request) (domain.ContextPrincipal, bool) {
	if a.validator == nil {
		return domain.ContextPrincipal{}, false
	}
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return domain.ContextPrincipal{}, false
	}
	claims, err := a.validator.Validate(r.Context(), strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		a.logger.Debug("bearer token rejected", "error", err)
		return domain.ContextPrincipal{}, false
	}
	name := a.resolveDisplayName(claims)
	if name == "" {
		a.logger.Debug("bearer token carries no usable name claim")
		return domain.ContextPrincipal{}, false
	}
	return domain.ContextPrincipal{Name: name, Type: "user"}, true
}

func (a *Authenticator) fromAPIKey(r *http.Request) (domain.ContextPrincipal, bool) {
	if !a.cfg.APIKeyEnabled || a.keys == nil {
		return domain.ContextPrincipal{}, false
	}
	raw := r.Header.Get(a.cfg.APIKeyHeader)
	if raw == "" {
		return domain.ContextPrincipal{}, false
	}
	hash := sha256.Sum256([]byte(raw))
	key, err := a.keys.GetByHash(r.Context(), hex.EncodeToString(hash[:]))
	if err != nil {
		a.logger.Debug("api key rejected", "error", err)
		return domain.ContextPrincipal{}, false
	}
	if key.Expired(time.Now()) {
		a.logger.Debug("api key expired", "key_id", key.ID, "key_prefix", key.KeyPrefix)
		return domain.ContextPrincipal{}, false
	}
	return domain.ContextPrincipal{Name: key.Principal, Type: "api_key"}, true
}

// resolveDisplayName picks the principal name from the configured claim,
// falling back to preferred_username and then the subject. Names are
// lowercased and trimmed so the same identity always resolves to the same
// principal.
func (a *Authenticator) resolveDisplayName(claims *JWTClaims) string {
	nameClaim := a.cfg.NameClaim
	if nameClaim == "" {
		nameClaim = "sub"
	}
	for _, c := range []string{nameClaim, "preferred_username", "sub"} {
		if v, ok := claims.Raw[c].(string); ok {
			if name := normalizeName(v); name != "" {
				return name
			}
		}
	}
	return normalizeName(claims.Subject)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    401,
		"message": "unauthorized: provide a valid JWT Bearer token or API key",
	})
}
