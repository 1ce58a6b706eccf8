package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"civictrack/internal/auth"
	"civictrack/internal/auth/credentials"
	"civictrack/internal/auth/provider"
	"civictrack/internal/auth/resolver"
	"civictrack/internal/auth/signin"
	"civictrack/internal/logger"
	"civictrack/internal/middleware"
	"civictrack/internal/session"
)

const (
	loginPath = "/auth/login"
	errorPath = "/auth/error"
)

// Authenticator turns credentials into sessions and back.
type Authenticator interface {
	SignIn(ctx context.Context, identifier, secret string) (signin.Result, error)
	Verify(ctx context.Context, identifier, secret string) (auth.User, error)
	Establish(ctx context.Context, userID string) (signin.Result, error)
	CurrentSession(ctx context.Context, sessionID string) (*auth.Session, error)
	SessionForToken(ctx context.Context, tok auth.Token, expires time.Time) (*auth.Session, error)
	SignOut(ctx context.Context, sessionID string) error
	SignOutEverywhere(ctx context.Context, userID string) error
}

type Registrar interface {
	Register(ctx context.Context, in credentials.RegisterInput) (string, error)
}

type Verifier interface {
	Issue(ctx context.Context, email string) error
	Resend(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (auth.User, error)
}

type TokenIssuer interface {
	Sign(t auth.Token) (string, time.Time, error)
}

// UserDirectory is the account management surface used by admin and
// profile endpoints.
type UserDirectory interface {
	List(ctx context.Context, role string, limit, offset int) ([]auth.User, int, error)
	UpdateRole(ctx context.Context, id string, role auth.Role) (auth.User, error)
	UpsertProfile(ctx context.Context, id string, p auth.Profile) (auth.User, error)
}

type Deps struct {
	Auth      Authenticator
	Providers *provider.Registry
	Resolver  resolver.Resolver
	Registrar Registrar
	Verifier  Verifier
	Tokens    TokenIssuer
	Users     UserDirectory
}

// Options carries deployment settings the handlers echo back to clients.
type Options struct {
	Cookies            session.CookieOptions
	BaseURL            string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type Handler struct {
	auth      Authenticator
	providers *provider.Registry
	resolver  resolver.Resolver
	registrar Registrar
	verifier  Verifier
	tokens    TokenIssuer
	users     UserDirectory
	opts      Options
}

func NewHandler(d Deps, opts Options) *Handler {
	if d.Providers == nil {
		d.Providers = provider.NewRegistry()
	}
	return &Handler{
		auth:      d.Auth,
		providers: d.Providers,
		resolver:  d.Resolver,
		registrar: d.Registrar,
		verifier:  d.Verifier,
		tokens:    d.Tokens,
		users:     d.Users,
		opts:      opts,
	}
}

// RegisterRoutes mounts pages and the auth API. The engine must already
// run middleware.LoadSession and have the page templates loaded.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET(loginPath, h.loginPage)
	r.POST(loginPath, h.loginSubmit)
	r.POST("/auth/logout", h.logoutPage)
	r.GET(errorPath, h.errorPage)

	api := r.Group("/api/auth")
	api.POST("/signin", h.signIn)
	api.POST("/signout", h.signOut)
	api.GET("/session", h.session)
	api.POST("/token", h.token)
	api.POST("/register", h.register)
	api.POST("/verify", h.verify)
	api.POST("/verify/resend", h.resend)
	api.GET("/signin/:provider", h.oauthLogin)
	api.GET("/callback/:provider", h.oauthCallback)
	api.GET("/test", h.diagnostics)

	pages := r.Group("", middleware.Gin(middleware.RequireAuthPage(loginPath)))
	pages.GET("/", h.home)
	pages.GET("/admin", h.adminPage)

	me := r.Group("/api/me", middleware.Gin(middleware.RequireAuth))
	me.GET("", h.me)
	me.PUT("/profile", h.updateProfile)

	admin := r.Group("/api/admin", middleware.Gin(middleware.RequireRoles(auth.RoleAdmin)))
	admin.GET("/users", h.listUsers)
	admin.PATCH("/users/:id/role", h.updateRole)

	for _, route := range r.Routes() {
		logger.Debug("route registered", map[string]any{"method": route.Method, "path": route.Path})
	}
}

// currentSession materializes the caller's session from the cookie or
// bearer token attached by middleware.LoadSession.
func (h *Handler) currentSession(c *gin.Context) (*auth.Session, error) {
	ctx := c.Request.Context()
	if sid, ok := middleware.SessionIDFromContext(ctx); ok {
		return h.auth.CurrentSession(ctx, sid)
	}
	if tok, ok := middleware.TokenFromContext(ctx); ok {
		exp, _ := middleware.TokenExpiryFromContext(ctx)
		return h.auth.SessionForToken(ctx, tok, exp)
	}
	return nil, nil
}

func (h *Handler) setSessionCookie(c *gin.Context, res signin.Result) {
	session.SetCookie(c.Writer, res.SessionID, res.Session.Expires, h.opts.Cookies)
}

// dropPreviousSession ends the session a browser arrived with before a
// new sign-in replaces it.
func (h *Handler) dropPreviousSession(c *gin.Context) {
	sid, ok := middleware.SessionIDFromContext(c.Request.Context())
	if !ok {
		return
	}
	if err := h.auth.SignOut(c.Request.Context(), sid); err != nil {
		logger.Warn("previous session not removed", map[string]any{"error": err.Error()})
	}
}

func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{"code": code, "message": message},
	})
}

// signinStatus maps a sign-in failure to its HTTP status.
func signinStatus(err error) int {
	var se *signin.Error
	if !errors.As(err, &se) {
		return http.StatusInternalServerError
	}
	switch se.Code {
	case "invalid_request":
		return http.StatusBadRequest
	case "invalid_credentials":
		return http.StatusUnauthorized
	case "locked":
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func signinCode(err error) string {
	var se *signin.Error
	if errors.As(err, &se) {
		return se.Code
	}
	return "internal_error"
}
