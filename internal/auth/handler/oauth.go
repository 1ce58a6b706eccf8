package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"civictrack/internal/auth"
	"civictrack/internal/auth/resolver"
	"civictrack/internal/logger"
	"civictrack/internal/utils"
)

func (h *Handler) oauthLogin(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		redirectError(c, errConfiguration)
		return
	}

	state, err := h.issueState(c)
	if err != nil {
		logger.Error("oauth state generation failed", map[string]any{"error": err.Error()})
		redirectError(c, errConfiguration)
		return
	}
	codeChallenge, err := h.issuePKCE(c)
	if err != nil {
		logger.Error("pkce generation failed", map[string]any{"error": err.Error()})
		redirectError(c, errConfiguration)
		return
	}
	if cb := c.Query("callbackUrl"); cb != "" {
		h.setFlowCookie(c, callbackCookieName, utils.SafeRedirect(cb, "/"))
	}

	c.Redirect(http.StatusFound, p.AuthCodeURL(state, codeChallenge))
}

func (h *Handler) oauthCallback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		redirectError(c, errConfiguration)
		return
	}

	if !validateState(c) {
		logger.Warn("oauth state mismatch", map[string]any{"provider": providerName, "ip": c.ClientIP()})
		h.clearFlowCookies(c)
		redirectError(c, errVerification)
		return
	}

	// the user declined or the provider refused
	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oidc callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		h.clearFlowCookies(c)
		redirectError(c, errAccessDenied)
		return
	}

	code := c.Query("code")
	codeVerifier := getPKCEVerifier(c)
	callbackURL := flowCookie(c, callbackCookieName)
	h.clearFlowCookies(c)

	if code == "" || codeVerifier == "" {
		logger.Error("oidc callback missing code or verifier", map[string]any{"provider": providerName})
		redirectError(c, errCallback)
		return
	}

	identity, err := p.ExchangeCode(c.Request.Context(), code, codeVerifier)
	if err != nil {
		logger.Error("oauth code exchange failed", map[string]any{"provider": providerName, "error": err.Error()})
		redirectError(c, errCallback)
		return
	}

	userID, err := h.resolver.Resolve(c.Request.Context(), identity)
	if errors.Is(err, resolver.ErrAccountNotLinked) {
		logger.Warn("identity not linked to existing account", map[string]any{"provider": providerName, "ip": c.ClientIP()})
		redirectError(c, errNotLinked)
		return
	}
	if err != nil {
		logger.Error("identity resolution failed", map[string]any{"provider": providerName, "error": err.Error()})
		redirectError(c, errCallback)
		return
	}

	res, err := h.auth.Establish(c.Request.Context(), userID)
	if err != nil {
		logger.Error("session not established", map[string]any{"user_id": userID, "error": err.Error()})
		redirectError(c, errCallback)
		return
	}

	h.dropPreviousSession(c)
	h.setSessionCookie(c, res)

	logger.Info("oauth login", map[string]any{
		"provider": providerName,
		"user_id":  userID,
		"ip":       c.ClientIP(),
	})

	c.Redirect(http.StatusFound, utils.SafeRedirect(callbackURL, auth.LandingPath(res.Session.User.Role)))
}

func redirectError(c *gin.Context, code string) {
	c.Redirect(http.StatusFound, errorPath+"?error="+url.QueryEscape(code))
}
