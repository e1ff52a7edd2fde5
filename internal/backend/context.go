package backend

import (
	"context"

	"github.com/google/uuid"
)

// ServiceScope is the scope of calls made with the configured service token.
const ServiceScope = "service"

type tokenKey struct{}

type scopeKey struct{}

// WithToken makes calls made with ctx authenticate as the caller instead of the service token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the caller token stored by WithToken.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// WithScope records which caller's view of the backend ctx reads.
func WithScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFromContext returns the caller scope, or ServiceScope when none was set.
func ScopeFromContext(ctx context.Context) string {
	if scope, _ := ctx.Value(scopeKey{}).(string); scope != "" {
		return scope
	}
	return ServiceScope
}

// ScopeKey is a stable, key-safe digest of the caller scope for cache and lock keys.
func ScopeKey(ctx context.Context) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(ScopeFromContext(ctx))).String()
}
