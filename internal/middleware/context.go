package middleware

import (
	"context"
	"time"

	"civictrack/internal/auth"
)

// unexported, collision-proof context keys
type tokenContextKeyType struct{}
type sessionIDContextKeyType struct{}
type tokenExpiryContextKeyType struct{}

var (
	tokenKey       = tokenContextKeyType{}
	sessionIDKey   = sessionIDContextKeyType{}
	tokenExpiryKey = tokenExpiryContextKeyType{}
)

// WithToken attaches the caller's claims to ctx.
func WithToken(ctx context.Context, t auth.Token) context.Context {
	return context.WithValue(ctx, tokenKey, t)
}

// TokenFromContext returns the authenticated caller's claims.
func TokenFromContext(ctx context.Context) (auth.Token, bool) {
	t, ok := ctx.Value(tokenKey).(auth.Token)
	return t, ok && t.UserID != ""
}

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	t, ok := TokenFromContext(ctx)
	return t.UserID, ok
}

// SessionIDFromContext returns the cookie session id, if the caller
// authenticated with one.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

// TokenExpiryFromContext returns when the caller's bearer token expires.
func TokenExpiryFromContext(ctx context.Context) (time.Time, bool) {
	exp, ok := ctx.Value(tokenExpiryKey).(time.Time)
	return exp, ok
}
