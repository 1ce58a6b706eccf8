package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCookieSecure(t *testing.T) {
	rec := httptest.NewRecorder()
	SetCookie(rec, "abc", time.Now().Add(time.Hour), CookieOptions{Secure: true, Path: "/x", Domain: "example.org"})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, SecureCookieName, c.Name)
	assert.Equal(t, "abc", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Empty(t, c.Domain)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestReadAndClearPlainCookie(t *testing.T) {
	opts := CookieOptions{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: PlainCookieName, Value: "sid"})
	assert.Equal(t, "sid", ReadCookie(req, opts))
	assert.Empty(t, ReadCookie(req, CookieOptions{Secure: true}))

	rec := httptest.NewRecorder()
	ClearCookie(rec, opts)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, PlainCookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestGenerateIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := GenerateID()
		require.NoError(t, err)
		assert.Len(t, id, 43)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
