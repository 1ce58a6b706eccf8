package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type Client struct {
	*goredis.Client
}

// Options selects the server. URL, when set, wins over Addr/Password.
type Options struct {
	URL      string
	Addr     string
	Password string
}

// New connects and pings the server.
func New(ctx context.Context, o Options) (*Client, error) {
	opts := &goredis.Options{
		Addr:     o.Addr,
		Password: o.Password,
		DB:       0,
	}
	if o.URL != "" {
		parsed, err := goredis.ParseURL(o.URL)
		if err != nil {
			return nil, fmt.Errorf("redis: parse url: %w", err)
		}
		opts = parsed
	}

	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}

	return &Client{Client: client}, nil
}
