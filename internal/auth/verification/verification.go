package verification

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"civictrack/internal/auth"
	"civictrack/internal/logger"
)

const (
	codeDigits = 6
	codeTTL    = 15 * time.Minute
)

var (
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrExpiredCode     = errors.New("verification code has expired")
	ErrUnknownUser     = errors.New("user not found")
	ErrAlreadyVerified = errors.New("user is already verified")
)

// Mailer delivers verification codes.
type Mailer interface {
	SendVerificationCode(ctx context.Context, to string, code string, ttl time.Duration) error
}

// Users is the subset of the user repository verification needs.
type Users interface {
	GetByEmail(ctx context.Context, email string) (auth.User, error)
	SetVerified(ctx context.Context, id string) error
}

type Service struct {
	client redis.UniversalClient
	users  Users
	mailer Mailer
}

func NewService(client redis.UniversalClient, users Users, mailer Mailer) *Service {
	return &Service{client: client, users: users, mailer: mailer}
}

func key(email string) string {
	return "verify:" + strings.ToLower(strings.TrimSpace(email))
}

// Issue generates a fresh code for email, replacing any previous one,
// and sends it.
func (s *Service) Issue(ctx context.Context, email string) error {
	code, err := generateCode()
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key(email), code, codeTTL).Err(); err != nil {
		return fmt.Errorf("verification: store code: %w", err)
	}
	return s.mailer.SendVerificationCode(ctx, email, code, codeTTL)
}

// Resend issues a new code for an existing, unverified account.
func (s *Service) Resend(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return ErrUnknownUser
	}
	if u.IsVerified {
		return ErrAlreadyVerified
	}
	return s.Issue(ctx, u.Email)
}

// Verify checks code against the stored one and marks the account
// verified. A code can be used once.
func (s *Service) Verify(ctx context.Context, email, code string) (auth.User, error) {
	stored, err := s.client.Get(ctx, key(email)).Result()
	if errors.Is(err, redis.Nil) {
		return auth.User{}, ErrExpiredCode
	}
	if err != nil {
		return auth.User{}, err
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(code))) != 1 {
		return auth.User{}, ErrInvalidCode
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return auth.User{}, ErrUnknownUser
	}
	if err := s.users.SetVerified(ctx, u.ID); err != nil {
		return auth.User{}, err
	}
	if err := s.client.Del(ctx, key(email)).Err(); err != nil {
		logger.Warn("verification code not cleared", map[string]any{"error": err.Error()})
	}

	u.IsVerified = true
	return u, nil
}

func generateCode() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("verification: generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

// LogMailer writes codes to the log instead of sending email. Used when
// no mail transport is configured.
type LogMailer struct{}

func (LogMailer) SendVerificationCode(_ context.Context, to string, code string, ttl time.Duration) error {
	logger.Info("verification code issued", map[string]any{
		"to":         to,
		"code":       code,
		"expires_in": ttl.String(),
	})
	return nil
}
