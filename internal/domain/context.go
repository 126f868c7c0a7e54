package domain

import "context"

type principalKey struct{}

// ContextPrincipal is the authenticated identity attached to a request.
// Type distinguishes how the caller authenticated: "user" for bearer
// tokens, "api_key" for key-based access.
type ContextPrincipal struct {
	Name string
	Type string
}

// WithPrincipal stores a ContextPrincipal in the context.
func WithPrincipal(ctx context.Context, p ContextPrincipal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the ContextPrincipal from the context.
// The bool reports whether a principal was present.
func PrincipalFromContext(ctx context.Context) (ContextPrincipal, bool) {
	p, ok := ctx.Value(principalKey{}).(ContextPrincipal)
	return p, ok
}
