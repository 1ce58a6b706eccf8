package credentials

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrLocked = errors.New("too many failed login attempts")

// Lockout counts failed sign-in attempts per identifier and blocks
// further attempts once the limit is reached within the window.
type Lockout struct {
	client      redis.UniversalClient
	maxAttempts int
	window      time.Duration
}

func NewLockout(client redis.UniversalClient, maxAttempts int, window time.Duration) *Lockout {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &Lockout{client: client, maxAttempts: maxAttempts, window: window}
}

func (l *Lockout) key(identifier string) string {
	return "login_failures:" + strings.ToLower(strings.TrimSpace(identifier))
}

// Check returns ErrLocked while the identifier is locked out, along with
// the time remaining.
func (l *Lockout) Check(ctx context.Context, identifier string) (time.Duration, error) {
	n, err := l.client.Get(ctx, l.key(identifier)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if n < l.maxAttempts {
		return 0, nil
	}

	ttl, err := l.client.TTL(ctx, l.key(identifier)).Result()
	if err != nil {
		return 0, err
	}
	return ttl, ErrLocked
}

// Fail records a failed attempt. The window starts at the first failure;
// the counter and its expiry are written in one transaction so a counter
// never outlives the window.
func (l *Lockout) Fail(ctx context.Context, identifier string) (int, error) {
	key := l.key(identifier)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

// Reset clears the failure counter after a successful sign-in.
func (l *Lockout) Reset(ctx context.Context, identifier string) error {
	return l.client.Del(ctx, l.key(identifier)).Err()
}
