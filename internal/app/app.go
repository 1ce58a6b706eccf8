package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"civictrack/internal/auth/credentials"
	"civictrack/internal/config"
	"civictrack/internal/logger"
	"civictrack/internal/telemetry"
)

const serviceName = "civictrack"

type App struct {
	httpServer *http.Server
	infra      *Infra
	telemetry  func(context.Context) error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	shutdownTracing := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint, cfg.OTelInsecure)

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, err
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		id, err := credentials.NewService(infra.DB).EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, "")
		if err != nil {
			_ = infra.Close()
			_ = shutdownTracing(ctx)
			return nil, err
		}
		logger.Info("admin account ensured", map[string]any{"user_id": id})
	}

	router, err := setupHTTP(ctx, cfg, infra)
	if err != nil {
		_ = infra.Close()
		_ = shutdownTracing(ctx)
		return nil, err
	}

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           otelhttp.NewHandler(router, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		httpServer: server,
		infra:      infra,
		telemetry:  shutdownTracing,
	}, nil
}

// Run blocks serving HTTP. It returns nil after a graceful Shutdown.
func (a *App) Run() error {
	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return errors.Join(a.infra.Close(), a.telemetry(ctx))
}
