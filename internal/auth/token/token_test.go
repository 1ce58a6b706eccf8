package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civictrack/internal/auth"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestSignAndParse(t *testing.T) {
	s := NewSigner(secret, time.Hour)

	raw, exp, err := s.Sign(auth.Token{UserID: "u1", Role: auth.RoleOfficial})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	tok, _, err := s.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, auth.Token{UserID: "u1", Role: auth.RoleOfficial}, tok)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	raw, _, err := NewSigner(secret, time.Hour).Sign(auth.Token{UserID: "u1", Role: auth.RoleAdmin})
	require.NoError(t, err)

	_, _, err = NewSigner("another-secret-another-secret-xx", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	s := NewSigner(secret, time.Minute)
	base := time.Now()
	s.now = func() time.Time { return base.Add(-2 * time.Minute) }

	raw, _, err := s.Sign(auth.Token{UserID: "u1", Role: auth.RoleCitizen})
	require.NoError(t, err)

	s.now = func() time.Time { return base }
	_, _, err = s.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseDowngradesForgedRole(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "u1",
		Role:   "GOD",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	tok, _, err := NewSigner(secret, time.Hour).Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleCitizen, tok.Role)
}

func TestSignRejectsIncompleteClaims(t *testing.T) {
	s := NewSigner(secret, time.Hour)

	_, _, err := s.Sign(auth.Token{Role: auth.RoleCitizen})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = s.Sign(auth.Token{UserID: "u1", Role: "ROOT"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1", Role: "ADMIN"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, _, err = NewSigner(secret, time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
