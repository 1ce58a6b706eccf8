package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// RandomString returns n random bytes encoded as unpadded base64url.
func RandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("utils: read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SafeRedirect returns target when it is a path on this site, else def.
// Protocol-relative and absolute URLs are rejected, as are targets carrying
// backslashes or control characters, which browsers drop or rewrite.
func SafeRedirect(target, def string) string {
	if target == "" || target[0] != '/' {
		return def
	}
	for i := 0; i < len(target); i++ {
		if c := target[i]; c < 0x20 || c == 0x7f || c == '\\' {
			return def
		}
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return def
	}
	if strings.HasPrefix(target, "//") {
		return def
	}
	return target
}
