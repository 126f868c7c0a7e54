// Package middleware provides HTTP middleware for authentication,
// rate limiting, and request tracing.
package middleware

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims holds the parsed claims from a validated JWT.
type JWTClaims struct {
	Subject  string
	Issuer   string
	Audience []string
	Email    *string
	Name     *string
	Raw      map[string]interface{}
}

// JWTValidator validates a JWT token and returns the parsed claims.
type JWTValidator interface {
	Validate(ctx context.Context, tokenString string) (*JWTClaims, error)
}

// HS256Validator checks tokens signed with a shared HS256 secret, the
// scheme the auth token CLI command mints for development setups.
type HS256Validator struct {
	secret []byte
}

// NewHS256Validator creates a validator for shared-secret HS256 tokens.
func NewHS256Validator(secret string) (*HS256Validator, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &HS256Validator{secret: []byte(secret)}, nil
}

// Validate rejects anything not signed with HS256, then lifts the standard
// identity claims out of the raw claim map.
func (v *HS256Validator) Validate(_ context.Context, tokenString string) (*JWTClaims, error) {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}

	tok, err := jwt.Parse(tokenString, keyFunc, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("parse claims: unsupported claim type %T", tok.Claims)
	}
	return claimsFromMap(raw), nil
}

// claimsFromMap copies the recognized identity claims out of raw. Claims
// with an unexpected type stay unset rather than failing the whole token.
func claimsFromMap(raw jwt.MapClaims) *JWTClaims {
	c := &JWTClaims{Raw: map[string]interface{}(raw)}
	c.Subject, _ = raw["sub"].(string)
	c.Issuer, _ = raw["iss"].(string)
	c.Audience = audienceClaim(raw["aud"])
	if email, ok := raw["email"].(string); ok {
		c.Email = &email
	}
	if name, ok := raw["name"].(string); ok {
		c.Name = &name
	}
	return c
}

// audienceClaim normalizes aud, which RFC 7519 allows to be a single
// string or an array of strings.
func audienceClaim(v interface{}) []string {
	switch aud := v.(type) {
	case string:
		return []string{aud}
	case []interface{}:
		var out []string
		for _, a := range aud {
			if s, ok := a.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
