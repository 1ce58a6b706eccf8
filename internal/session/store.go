package session

import (
	"context"
	"time"

	"civictrack/internal/auth"
)

// Session is the server-side record behind a session cookie. It holds
// the token claims only; profile data is looked up when a full
// auth.Session is materialized.
type Session struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Role      auth.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Token returns the claims carried by the record. The role is normalized
// again since stored values may predate a role change.
func (s Session) Token() auth.Token {
	return auth.NewToken(s.UserID, string(s.Role))
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store defines how sessions are stored and retrieved.
// Get returns (nil, nil) when no session exists.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, sessionID string) error
	DeleteAllForUser(ctx context.Context, userID string) error
}
