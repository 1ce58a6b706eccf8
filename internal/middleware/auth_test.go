package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civictrack/internal/auth"
	"civictrack/internal/session"
)

type memStore struct {
	sessions map[string]session.Session
}

func (m *memStore) Create(_ context.Context, s session.Session) error {
	m.sessions[s.SessionID] = s
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*session.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memStore) Update(ctx context.Context, s session.Session) error { return m.Create(ctx, s) }

func (m *memStore) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func (m *memStore) DeleteAllForUser(context.Context, string) error { return nil }

type stubTokens struct{}

func (stubTokens) Parse(raw string) (auth.Token, time.Time, error) {
	if raw == "good" {
		return auth.Token{UserID: "bearer-user", Role: auth.RoleOfficial}, time.Now().Add(time.Hour), nil
	}
	return auth.Token{}, time.Time{}, errors.New("bad token")
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &memStore{sessions: map[string]session.Session{
		"citizen-sid": {SessionID: "citizen-sid", UserID: "u1", Role: auth.RoleCitizen, ExpiresAt: time.Now().Add(time.Hour)},
		"admin-sid":   {SessionID: "admin-sid", UserID: "u2", Role: auth.RoleAdmin, ExpiresAt: time.Now().Add(time.Hour)},
		"corrupt-sid": {SessionID: "corrupt-sid", UserID: "u3", Role: "EMPEROR", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	mw := NewAuthMiddleware(store, stubTokens{}, session.CookieOptions{})

	r := gin.New()
	r.Use(Gin(mw.LoadSession))

	r.GET("/whoami", func(c *gin.Context) {
		tok, ok := TokenFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"ok": ok, "uid": tok.UserID, "role": tok.Role})
	})

	api := r.Group("/api", Gin(RequireAuth))
	api.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, "me") })

	admin := r.Group("/api/admin", Gin(RequireRoles(auth.RoleAdmin)))
	admin.GET("/users", func(c *gin.Context) { c.String(http.StatusOK, "users") })

	page := r.Group("/", Gin(RequireAuthPage("/auth/login")))
	page.GET("/dashboard", func(c *gin.Context) { c.String(http.StatusOK, "dashboard") })

	return r
}

func do(r http.Handler, method, path, cookie, bearerToken string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.PlainCookieName, Value: cookie})
	}
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodGet, "/api/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"unauthorized","message":"authentication required"}}`, rec.Body.String())

	rec = do(r, http.MethodGet, "/api/me", "citizen-sid", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "me", rec.Body.String())

	rec = do(r, http.MethodGet, "/api/me", "", "good")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/api/me", "", "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStaleCookieIsCleared(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodGet, "/api/me", "gone", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.PlainCookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestRequireRoles(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/admin/users", "", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/admin/users", "citizen-sid", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/admin/users", "", "good").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/admin/users", "admin-sid", "").Code)
}

func TestCorruptStoredRoleActsAsCitizen(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodGet, "/whoami", "corrupt-sid", "")
	assert.JSONEq(t, `{"ok":true,"uid":"u3","role":"CITIZEN"}`, rec.Body.String())
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/admin/users", "corrupt-sid", "").Code)
}

func TestRequireAuthPageRedirects(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodGet, "/dashboard?tab=open", "", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login?callbackUrl=%2Fdashboard%3Ftab%3Dopen", rec.Header().Get("Location"))

	rec = do(r, http.MethodGet, "/dashboard", "citizen-sid", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCookieWinsOverBearer(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodGet, "/whoami", "admin-sid", "good")
	assert.JSONEq(t, `{"ok":true,"uid":"u2","role":"ADMIN"}`, rec.Body.String())
}
