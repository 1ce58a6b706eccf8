package session

import (
	"fmt"

	"civictrack/internal/utils"
)

const idBytes = 32

// GenerateID returns a URL-safe session identifier with 256 bits of
// entropy.
func GenerateID() (string, error) {
	id, err := utils.RandomString(idBytes)
	if err != nil {
		return "", fmt.Errorf("session: failed to generate id: %w", err)
	}
	return id, nil
}
