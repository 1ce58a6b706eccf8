package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"civictrack/internal/logger"
)

// Role is the authorization tier of a user. The set is closed.
type Role string

const (
	RoleCitizen  Role = "CITIZEN"
	RoleWorker   Role = "WORKER"
	RoleOfficial Role = "OFFICIAL"
	RoleAdmin    Role = "ADMIN"
)

var ErrInvalidRole = errors.New("auth: role outside the closed set")

// Roles lists every valid role, lowest privilege first.
var Roles = []Role{RoleCitizen, RoleWorker, RoleOfficial, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleWorker, RoleOfficial, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole accepts an ASCII role name in any letter case. It is meant for
// operator input; stored and claimed roles go through NormalizeRole.
func ParseRole(raw string) (Role, error) {
	trimmed := strings.TrimSpace(raw)
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] >= utf8.RuneSelf {
			return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
		}
	}
	r := Role(strings.ToUpper(trimmed))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
	return r, nil
}

// NormalizeRole is the boundary policy for stored or provider-supplied
// roles. Only the canonical names are accepted. Anything else, including
// a differently cased name, is a data-integrity fault: it is logged and
// downgraded to CITIZEN until corrected at the source.
func NormalizeRole(raw string) Role {
	r := Role(raw)
	if !r.Valid() {
		logger.Error("role out of range, downgrading to CITIZEN", map[string]any{
			"role": raw,
		})
		return RoleCitizen
	}
	return r
}

// LandingPath is where a user goes right after signing in or when an
// existing session is detected.
func LandingPath(r Role) string {
	if r == RoleAdmin {
		return "/admin"
	}
	return "/"
}
