package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env     string
	AppPort string
	BaseURL string

	SessionTTL    time.Duration
	SessionSecret string
	CookieSecure  bool

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	AdminEmail    string
	AdminPassword string

	LoginMaxAttempts   int
	LoginLockoutWindow time.Duration

	RedisAddr     string
	RedisPassword string
	RedisURL      string

	DatabaseDSN string

	OTelEndpoint string
	OTelInsecure bool
}

// Load reads configuration from the environment. A .env file in the
// working directory is honoured when present; real environment variables
// win over it.
func Load() Config {
	_ = godotenv.Load()

	baseURL := env("BASE_URL", os.Getenv("NEXTAUTH_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	cfg := Config{
		Env:     env("APP_ENV", "development"),
		AppPort: env("APP_PORT", "8080"),
		BaseURL: baseURL,

		SessionTTL:    duration("SESSION_TTL", 24*time.Hour),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		CookieSecure:  boolean("COOKIE_SECURE", true),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  env("GOOGLE_REDIRECT_URL", baseURL+"/api/auth/callback/google"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		LoginMaxAttempts:   integer("LOGIN_MAX_ATTEMPTS", 5),
		LoginLockoutWindow: duration("LOGIN_LOCKOUT_WINDOW", 15*time.Minute),

		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisURL:      os.Getenv("REDIS_URL"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		OTelEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTelInsecure: boolean("OTEL_EXPORTER_OTLP_INSECURE", false),
	}

	return cfg
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN is required"))
	}
	if len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 bytes"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// GoogleEnabled reports whether Google sign-in is fully configured.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func integer(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func duration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return v
}

func boolean(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
