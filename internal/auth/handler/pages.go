package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"civictrack/internal/auth"
	"civictrack/internal/auth/signin"
	"civictrack/internal/logger"
	"civictrack/internal/middleware"
	"civictrack/internal/session"
	"civictrack/internal/utils"
)

// Submit control labels. The page is always rendered with the idle label;
// the pending label is applied client side while the form is in flight.
const (
	submitLabel  = "Login"
	pendingLabel = "Logging in..."
)

type loginView struct {
	Email       string
	CallbackURL string
	Error       string
	Providers   []string
	Submit      string
	Pending     string
}

func (h *Handler) renderLogin(c *gin.Context, status int, v loginView) {
	v.Submit = submitLabel
	v.Pending = pendingLabel
	v.Providers = h.providers.Names()
	c.HTML(status, "login.tmpl", v)
}

// loginPage shows the sign-in form, or forwards an already signed-in
// visitor to their landing page.
func (h *Handler) loginPage(c *gin.Context) {
	s, err := h.currentSession(c)
	if err != nil {
		logger.Error("session lookup failed", map[string]any{"error": err.Error()})
	}
	if s != nil {
		c.Redirect(http.StatusSeeOther, utils.SafeRedirect(c.Query("callbackUrl"), auth.LandingPath(s.User.Role)))
		return
	}

	v := loginView{CallbackURL: c.Query("callbackUrl")}
	if code := c.Query("error"); code != "" {
		v.Error = errorMessage(code)
	}
	h.renderLogin(c, http.StatusOK, v)
}

// loginSubmit handles the form post. On success the browser is sent to
// its landing page with a single 303; on failure the form is re-rendered
// with the provider's message and the submit control enabled again.
func (h *Handler) loginSubmit(c *gin.Context) {
	email := c.PostForm("email")
	callbackURL := c.PostForm("callbackUrl")

	res, err := h.auth.SignIn(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		h.renderLogin(c, signinStatus(err), loginView{
			Email:       email,
			CallbackURL: callbackURL,
			Error:       signin.Message(err),
		})
		return
	}

	h.dropPreviousSession(c)
	h.setSessionCookie(c, res)
	c.Redirect(http.StatusSeeOther, utils.SafeRedirect(callbackURL, auth.LandingPath(res.Session.User.Role)))
}

func (h *Handler) logoutPage(c *gin.Context) {
	if sid, ok := middleware.SessionIDFromContext(c.Request.Context()); ok {
		if err := h.auth.SignOut(c.Request.Context(), sid); err != nil {
			logger.Error("sign out failed", map[string]any{"error": err.Error()})
		}
	}
	session.ClearCookie(c.Writer, h.opts.Cookies)
	c.Redirect(http.StatusSeeOther, loginPath)
}

func (h *Handler) errorPage(c *gin.Context) {
	c.HTML(http.StatusOK, "error.tmpl", gin.H{"Message": errorMessage(c.Query("error"))})
}

func (h *Handler) home(c *gin.Context) {
	s, ok := h.pageSession(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "home.tmpl", s)
}

// adminPage is the ADMIN landing page. Other roles are sent to theirs.
func (h *Handler) adminPage(c *gin.Context) {
	s, ok := h.pageSession(c)
	if !ok {
		return
	}
	if s.User.Role != auth.RoleAdmin {
		c.Redirect(http.StatusSeeOther, auth.LandingPath(s.User.Role))
		return
	}

	list, total, err := h.users.List(c.Request.Context(), "", 50, 0)
	if err != nil {
		logger.Error("user list failed", map[string]any{"error": err.Error()})
		c.HTML(http.StatusInternalServerError, "error.tmpl", gin.H{"Message": errorMessage(errConfiguration)})
		return
	}
	c.HTML(http.StatusOK, "admin.tmpl", gin.H{"User": s.User, "Users": list, "Total": total})
}

// pageSession loads the session for a page behind RequireAuthPage. A
// token whose user has gone is treated as signed out.
func (h *Handler) pageSession(c *gin.Context) (*auth.Session, bool) {
	s, err := h.currentSession(c)
	if err != nil {
		logger.Error("session lookup failed", map[string]any{"error": err.Error()})
		c.HTML(http.StatusInternalServerError, "error.tmpl", gin.H{"Message": errorMessage(errConfiguration)})
		return nil, false
	}
	if s == nil {
		session.ClearCookie(c.Writer, h.opts.Cookies)
		c.Redirect(http.StatusFound, loginPath)
		return nil, false
	}
	return s, true
}
