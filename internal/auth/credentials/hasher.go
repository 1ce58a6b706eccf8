package credentials

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	HashVersionBcrypt = "bcrypt"

	MinPasswordLength = 8
	bcryptCost        = 12
)

var ErrWeakPassword = errors.New("password must be at least 8 characters long")

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (hash string, version string, err error) {
	if len(password) < MinPasswordLength {
		return "", "", ErrWeakPassword
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", "", err
	}

	return string(bytes), HashVersionBcrypt, nil
}

// VerifyPassword compares plaintext password with stored hash.
func VerifyPassword(hash string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

var verifyPassword = VerifyPassword

var (
	dummyOnce sync.Once
	dummy     string
)

// dummyHash is compared against when no account matches.
func dummyHash() string {
	dummyOnce.Do(func() {
		b, err := bcrypt.GenerateFromPassword([]byte("civictrack-no-such-account"), bcryptCost)
		if err == nil {
			dummy = string(b)
		}
	})
	return dummy
}
