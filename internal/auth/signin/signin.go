package signin

import (
	"context"
	"errors"
	"strings"
	"time"

	"civictrack/internal/auth"
	"civictrack/internal/auth/credentials"
	"civictrack/internal/logger"
	"civictrack/internal/session"
	"civictrack/internal/users"
)

type Credentials interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
}

type Users interface {
	GetByID(ctx context.Context, id string) (auth.User, error)
	TouchLastLogin(ctx context.Context, id string) error
}

type Limiter interface {
	Check(ctx context.Context, identifier string) (time.Duration, error)
	Fail(ctx context.Context, identifier string) (int, error)
	Reset(ctx context.Context, identifier string) error
}

// Service is the authentication provider the web layer talks to. It
// turns credentials into sessions and session ids back into
// materialized auth.Sessions.
type Service struct {
	creds    Credentials
	users    Users
	sessions session.Store
	limiter  Limiter
	ttl      time.Duration
	now      func() time.Time
}

// NewService wires the provider. limiter may be nil to disable lockout.
func NewService(
	creds Credentials,
	users Users,
	sessions session.Store,
	limiter Limiter,
	ttl time.Duration,
) *Service {
	return &Service{
		creds:    creds,
		users:    users,
		sessions: sessions,
		limiter:  limiter,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Result is an established session.
type Result struct {
	SessionID string
	Session   auth.Session
}

// SignIn verifies an identifier/secret pair and establishes a session.
// Every failure is an *Error whose Message is safe to show.
func (s *Service) SignIn(ctx context.Context, identifier, secret string) (Result, error) {
	userID, err := s.verify(ctx, identifier, secret)
	if err != nil {
		return Result{}, err
	}

	res, err := s.Establish(ctx, userID)
	if err != nil {
		logger.Error("session not established", map[string]any{"user_id": userID, "error": err.Error()})
		return Result{}, &Error{Code: "internal_error", Message: MsgInternal, Err: err}
	}
	return res, nil
}

// Verify checks an identifier/secret pair without creating a session.
// Used for bearer token issuance.
func (s *Service) Verify(ctx context.Context, identifier, secret string) (auth.User, error) {
	userID, err := s.verify(ctx, identifier, secret)
	if err != nil {
		return auth.User{}, err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		logger.Error("user lookup failed", map[string]any{"user_id": userID, "error": err.Error()})
		return auth.User{}, &Error{Code: "internal_error", Message: MsgInternal, Err: err}
	}
	return u, nil
}

func (s *Service) verify(ctx context.Context, identifier, secret string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return "", &Error{Code: "invalid_request", Message: MsgMissingCredentials}
	}

	if s.limiter != nil {
		if _, err := s.limiter.Check(ctx, identifier); err != nil {
			if errors.Is(err, credentials.ErrLocked) {
				logger.Warn("sign-in blocked by lockout", map[string]any{"identifier": identifier})
				return "", &Error{Code: "locked", Message: MsgLocked, Err: err}
			}
			logger.Error("lockout check failed", map[string]any{"error": err.Error()})
		}
	}

	userID, err := s.creds.Authenticate(ctx, identifier, secret)
	if errors.Is(err, credentials.ErrInvalidCredentials) {
		if s.limiter != nil {
			if _, ferr := s.limiter.Fail(ctx, identifier); ferr != nil {
				logger.Error("lockout record failed", map[string]any{"error": ferr.Error()})
			}
		}
		return "", &Error{Code: "invalid_credentials", Message: MsgInvalidCredentials, Err: err}
	}
	if err != nil {
		logger.Error("credential check failed", map[string]any{"error": err.Error()})
		return "", &Error{Code: "internal_error", Message: MsgInternal, Err: err}
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, identifier); err != nil {
			logger.Warn("lockout reset failed", map[string]any{"error": err.Error()})
		}
	}
	return userID, nil
}

// Establish creates a session for an already authenticated user.
func (s *Service) Establish(ctx context.Context, userID string) (Result, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	sessionID, err := session.GenerateID()
	if err != nil {
		return Result{}, err
	}

	now := s.now()
	expires := now.Add(s.ttl)
	if err := s.sessions.Create(ctx, session.Session{
		SessionID: sessionID,
		UserID:    u.ID,
		Role:      u.Role,
		CreatedAt: now,
		ExpiresAt: expires,
	}); err != nil {
		return Result{}, err
	}

	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		logger.Warn("last login not recorded", map[string]any{"user_id": u.ID, "error": err.Error()})
	}

	logger.Info("session established", map[string]any{"user_id": u.ID, "role": u.Role.String()})

	return Result{
		SessionID: sessionID,
		Session:   auth.Session{User: u, Expires: expires},
	}, nil
}

// CurrentSession returns the session behind sessionID, or nil when there
// is none. A session whose user no longer exists is removed.
func (s *Service) CurrentSession(ctx context.Context, sessionID string) (*auth.Session, error) {
	if sessionID == "" {
		return nil, nil
	}

	rec, err := s.sessions.Get(ctx, sessionID)
	if err != nil || rec == nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, rec.UserID)
	if errors.Is(err, users.ErrNotFound) {
		_ = s.sessions.Delete(ctx, sessionID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if u.Role != rec.Role {
		rec.Role = u.Role
		if err := s.sessions.Update(ctx, *rec); err != nil {
			logger.Warn("session role refresh failed", map[string]any{"user_id": u.ID, "error": err.Error()})
		}
	}

	return &auth.Session{User: u, Expires: rec.ExpiresAt}, nil
}

// SessionForToken materializes a session from bearer token claims.
func (s *Service) SessionForToken(ctx context.Context, tok auth.Token, expires time.Time) (*auth.Session, error) {
	u, err := s.users.GetByID(ctx, tok.UserID)
	if errors.Is(err, users.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &auth.Session{User: u, Expires: expires}, nil
}

// SignOut ends a single session. Unknown ids are not an error.
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

// SignOutEverywhere ends every session of a user.
func (s *Service) SignOutEverywhere(ctx context.Context, userID string) error {
	return s.sessions.DeleteAllForUser(ctx, userID)
}
