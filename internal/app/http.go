package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"civictrack/internal/auth/credentials"
	"civictrack/internal/auth/handler"
	"civictrack/internal/auth/provider"
	"civictrack/internal/auth/provider/google"
	"civictrack/internal/auth/resolver"
	"civictrack/internal/auth/signin"
	"civictrack/internal/auth/token"
	"civictrack/internal/auth/verification"
	"civictrack/internal/config"
	"civictrack/internal/logger"
	"civictrack/internal/middleware"
	"civictrack/internal/session"
	"civictrack/internal/users"
	"civictrack/internal/web"
)

func setupHTTP(ctx context.Context, cfg config.Config, infra *Infra) (*gin.Engine, error) {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	sessionStore := session.NewRedisStore(infra.Redis.Client)
	userRepo := users.NewRepository(infra.DB)
	credentialService := credentials.NewService(infra.DB)
	lockout := credentials.NewLockout(infra.Redis.Client, cfg.LoginMaxAttempts, cfg.LoginLockoutWindow)
	signer := token.NewSigner(cfg.SessionSecret, cfg.SessionTTL)

	authService := signin.NewService(credentialService, userRepo, sessionStore, lockout, cfg.SessionTTL)

	var googleProvider provider.OAuthProvider
	if cfg.GoogleEnabled() {
		p, err := google.New(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		if err != nil {
			return nil, err
		}
		googleProvider = p
	} else {
		logger.Warn("google sign-in disabled", map[string]any{"reason": "GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET missing"})
	}

	cookies := session.CookieOptions{Secure: cfg.CookieSecure}

	authHandler := handler.NewHandler(handler.Deps{
		Auth:      authService,
		Providers: provider.NewRegistry(googleProvider),
		Resolver:  resolver.NewDBResolver(infra.DB),
		Registrar: credentialService,
		Verifier:  verification.NewService(infra.Redis.Client, userRepo, verification.LogMailer{}),
		Tokens:    signer,
		Users:     userRepo,
	}, handler.Options{
		Cookies:            cookies,
		BaseURL:            cfg.BaseURL,
		GoogleClientID:     cfg.GoogleClientID,
		GoogleClientSecret: cfg.GoogleClientSecret,
		GoogleRedirectURL:  cfg.GoogleRedirectURL,
	})

	authMiddleware := middleware.NewAuthMiddleware(sessionStore, signer, cookies)

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(
		middleware.Recovery(),
		middleware.RequestLogger(),
		middleware.Gin(authMiddleware.LoadSession),
	)

	router.GET("/health", health(infra))

	authHandler.RegisterRoutes(router)

	return router, nil
}

func health(infra *Infra) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok", "redis": "ok"}
		code := http.StatusOK
		if err := infra.DB.PingContext(ctx); err != nil {
			status["database"] = "down"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
		if err := infra.Redis.Ping(ctx).Err(); err != nil {
			status["redis"] = "down"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
