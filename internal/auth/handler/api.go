package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"civictrack/internal/auth"
	"civictrack/internal/auth/signin"
	"civictrack/internal/logger"
	"civictrack/internal/middleware"
	"civictrack/internal/session"
	"civictrack/internal/users"
)

type signinRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (h *Handler) signIn(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBind(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_request", signin.MsgMissingCredentials)
		return
	}

	res, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortError(c, signinStatus(err), signinCode(err), signin.Message(err))
		return
	}

	h.dropPreviousSession(c)
	h.setSessionCookie(c, res)
	c.JSON(http.StatusOK, gin.H{
		"session": res.Session,
		"url":     auth.LandingPath(res.Session.User.Role),
	})
}

// signOut is idempotent. ?everywhere=true also ends the user's other
// sessions.
func (h *Handler) signOut(c *gin.Context) {
	ctx := c.Request.Context()

	if sid, ok := middleware.SessionIDFromContext(ctx); ok {
		if err := h.auth.SignOut(ctx, sid); err != nil {
			logger.Error("sign out failed", map[string]any{"error": err.Error()})
		}
	}
	if uid, ok := middleware.UserIDFromContext(ctx); ok && c.Query("everywhere") == "true" {
		if err := h.auth.SignOutEverywhere(ctx, uid); err != nil {
			logger.Error("sign out everywhere failed", map[string]any{"user_id": uid, "error": err.Error()})
		}
	}

	session.ClearCookie(c.Writer, h.opts.Cookies)
	c.Status(http.StatusNoContent)
}

// session returns the caller's session, or an empty object when there is
// none.
func (h *Handler) session(c *gin.Context) {
	s, err := h.currentSession(c)
	if err != nil {
		logger.Error("session lookup failed", map[string]any{"error": err.Error()})
		abortError(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if s == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, s)
}

// token issues a bearer token for API clients. No cookie session is
// created.
func (h *Handler) token(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_request", signin.MsgMissingCredentials)
		return
	}

	u, err := h.auth.Verify(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortError(c, signinStatus(err), signinCode(err), signin.Message(err))
		return
	}

	raw, expires, err := h.tokens.Sign(auth.Token{UserID: u.ID, Role: u.Role})
	if err != nil {
		logger.Error("token signing failed", map[string]any{"error": err.Error()})
		abortError(c, http.StatusInternalServerError, "internal_error", signin.MsgInternal)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken": raw,
		"tokenType":   "Bearer",
		"expiresAt":   expires,
		"user":        u,
	})
}

func (h *Handler) me(c *gin.Context) {
	s, err := h.currentSession(c)
	if err != nil {
		logger.Error("session lookup failed", map[string]any{"error": err.Error()})
		abortError(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if s == nil {
		abortError(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	c.JSON(http.StatusOK, s.User)
}

func (h *Handler) updateProfile(c *gin.Context) {
	uid, _ := middleware.UserIDFromContext(c.Request.Context())

	var p auth.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_request", "invalid profile")
		return
	}

	u, err := h.users.UpsertProfile(c.Request.Context(), uid, p)
	if errors.Is(err, users.ErrNotFound) {
		abortError(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	if err != nil {
		logger.Error("profile update failed", map[string]any{"user_id": uid, "error": err.Error()})
		abortError(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) listUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	list, total, err := h.users.List(c.Request.Context(), c.Query("role"), limit, offset)
	if errors.Is(err, auth.ErrInvalidRole) {
		abortError(c, http.StatusBadRequest, "invalid_role", "unknown role")
		return
	}
	if err != nil {
		logger.Error("user list failed", map[string]any{"error": err.Error()})
		abortError(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list, "total": total})
}

type roleRequest struct {
	Role string `json:"role"`
}

// updateRole changes a user's role and ends their sessions so the new
// role applies from their next sign-in.
func (h *Handler) updateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_request", "role is required")
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		abortError(c, http.StatusBadRequest, "invalid_role", "unknown role")
		return
	}

	id := c.Param("id")
	u, err := h.users.UpdateRole(c.Request.Context(), id, role)
	if errors.Is(err, users.ErrNotFound) {
		abortError(c, http.StatusNotFound, "not_found", "user not found")
		return
	}
	if err != nil {
		logger.Error("role update failed", map[string]any{"user_id": id, "error": err.Error()})
		abortError(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	if err := h.auth.SignOutEverywhere(c.Request.Context(), u.ID); err != nil {
		logger.Warn("sessions not revoked after role change", map[string]any{"user_id": u.ID, "error": err.Error()})
	}

	actor, _ := middleware.UserIDFromContext(c.Request.Context())
	logger.Info("role changed", map[string]any{"user_id": u.ID, "role": u.Role.String(), "by": actor})
	c.JSON(http.StatusOK, u)
}
