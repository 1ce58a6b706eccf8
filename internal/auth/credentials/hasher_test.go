package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, version, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.Equal(t, HashVersionBcrypt, version)

	assert.NoError(t, VerifyPassword(hash, "correct horse"))
	assert.Error(t, VerifyPassword(hash, "wrong"))
}

func TestHashRejectsShortPassword(t *testing.T) {
	_, _, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}
