package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"civictrack/internal/auth"
	"civictrack/internal/logger"
	"civictrack/internal/session"
)

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(raw string) (auth.Token, time.Time, error)
}

type AuthMiddleware struct {
	Store   session.Store
	Tokens  TokenParser
	Cookies session.CookieOptions
}

func NewAuthMiddleware(store session.Store, tokens TokenParser, cookies session.CookieOptions) *AuthMiddleware {
	return &AuthMiddleware{Store: store, Tokens: tokens, Cookies: cookies}
}

// LoadSession attaches the caller's claims to the request context when a
// valid session cookie or bearer token is present. Requests without one
// pass through unauthenticated; handlers decide what that means.
func (a *AuthMiddleware) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if sessionID := session.ReadCookie(r, a.Cookies); sessionID != "" {
			sess, err := a.Store.Get(ctx, sessionID)
			switch {
			case err != nil:
				logger.Error("session lookup failed", map[string]any{"error": err.Error()})
			case sess == nil:
				// stale cookie: stop the browser from sending it
				session.ClearCookie(w, a.Cookies)
			default:
				ctx = WithToken(ctx, sess.Token())
				ctx = context.WithValue(ctx, sessionIDKey, sessionID)
			}
		} else if raw := bearer(r); raw != "" && a.Tokens != nil {
			tok, exp, err := a.Tokens.Parse(raw)
			if err == nil {
				ctx = WithToken(ctx, tok)
				ctx = context.WithValue(ctx, tokenExpiryKey, exp)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects unauthenticated API requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := TokenFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthPage sends unauthenticated browsers to the login page,
// remembering where they were going.
func RequireAuthPage(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := TokenFromContext(r.Context()); !ok {
				target := loginPath + "?callbackUrl=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoles allows the request only if the caller's role is listed.
func RequireRoles(roles ...auth.Role) func(http.Handler) http.Handler {
	allowed := make(map[auth.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := TokenFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}
			if _, ok := allowed[tok.Role]; !ok {
				writeError(w, http.StatusForbidden, "forbidden", "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
