package auth

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civictrack/internal/logger"
)

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"CITIZEN", "worker", " Official ", "ADMIN"} {
		r, err := ParseRole(raw)
		require.NoError(t, err, raw)
		assert.True(t, r.Valid())
	}

	for _, raw := range []string{"", "user", "SUPERADMIN", "citizens", "admın", "ＡＤＭＩＮ"} {
		_, err := ParseRole(raw)
		assert.ErrorIs(t, err, ErrInvalidRole, raw)
	}
}

func TestNormalizeRoleNeverLeavesClosedSet(t *testing.T) {
	inputs := []string{
		"", "CITIZEN", "WORKER", "OFFICIAL", "ADMIN", "admin", "root",
		"user", "0", "ADMIN\x00", "ＡＤＭＩＮ", "MODERATOR", "Official",
	}
	for _, in := range inputs {
		r := NormalizeRole(in)
		assert.Contains(t, Roles, r, "input %q", in)
	}
	assert.Equal(t, RoleCitizen, NormalizeRole("MODERATOR"))
	assert.Equal(t, RoleAdmin, NormalizeRole("ADMIN"))
}

func TestNormalizeRoleRejectsNonCanonicalNames(t *testing.T) {
	var buf bytes.Buffer
	logger.Set(logger.New(&buf, "production"))
	t.Cleanup(func() { logger.Set(logger.New(io.Discard, "production")) })

	for _, in := range []string{"admin", " admin ", "Admin", "admın", "ADMIN "} {
		buf.Reset()
		assert.Equal(t, RoleCitizen, NormalizeRole(in), "input %q", in)
		assert.Contains(t, buf.String(), "role out of range", "input %q", in)
	}
}

func TestNewSession(t *testing.T) {
	exp := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("mandatory fields", func(t *testing.T) {
		_, err := NewSession(RawUser{Email: "a@b.com", Role: "CITIZEN"}, exp)
		assert.ErrorIs(t, err, ErrMissingUserID)

		_, err = NewSession(RawUser{ID: "u1", Role: "CITIZEN"}, exp)
		assert.ErrorIs(t, err, ErrMissingEmail)
	})

	t.Run("out of range role is downgraded", func(t *testing.T) {
		s, err := NewSession(RawUser{ID: "u1", Email: "a@b.com", Role: "SUPERUSER"}, exp)
		require.NoError(t, err)
		assert.Equal(t, RoleCitizen, s.User.Role)
		assert.Equal(t, Token{UserID: "u1", Role: RoleCitizen}, s.Token())
	})

	t.Run("name derived from profile", func(t *testing.T) {
		s, err := NewSession(RawUser{
			ID:      "u1",
			Email:   "jane@example.com",
			Role:    "WORKER",
			Profile: Profile{FirstName: Ptr("Jane"), LastName: Ptr("Doe")},
		}, exp)
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", s.User.Name)
		require.NotNil(t, s.User.Profile)
		assert.Nil(t, s.User.Profile.Phone)
		assert.Equal(t, exp, s.Expires)
	})

	t.Run("name derived from email", func(t *testing.T) {
		s, err := NewSession(RawUser{ID: "u1", Email: "jane@example.com", Role: "ADMIN"}, exp)
		require.NoError(t, err)
		assert.Equal(t, "jane", s.User.Name)
		assert.Nil(t, s.User.Profile)
		assert.Nil(t, s.User.Image)
	})
}

func TestLandingPath(t *testing.T) {
	assert.Equal(t, "/admin", LandingPath(RoleAdmin))
	for _, r := range []Role{RoleCitizen, RoleWorker, RoleOfficial} {
		assert.Equal(t, "/", LandingPath(r))
	}
}
