package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

const googleAuthEndpoint = "https://accounts.google.com/o/oauth2/v2/auth"

func presence(v string) string {
	if v != "" {
		return "Set ✓"
	}
	return "Missing ✗"
}

// diagnostics reports the OAuth settings an operator must mirror in the
// Google console. Secrets are reported by presence only. The authorization
// URL uses the redirect actually sent to Google, which may be overridden.
func (h *Handler) diagnostics(c *gin.Context) {
	expectedRedirect := h.opts.BaseURL + "/api/auth/callback/google"
	redirectURI := expectedRedirect
	if h.opts.GoogleRedirectURL != "" {
		redirectURI = h.opts.GoogleRedirectURL
	}

	q := url.Values{}
	q.Set("client_id", h.opts.GoogleClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", "openid email profile")

	c.JSON(http.StatusOK, gin.H{
		"status": "OAuth Configuration Test",
		"environment": gin.H{
			"BASE_URL":             h.opts.BaseURL,
			"GOOGLE_CLIENT_ID":     presence(h.opts.GoogleClientID),
			"GOOGLE_CLIENT_SECRET": presence(h.opts.GoogleClientSecret),
		},
		"providers":             h.providers.Names(),
		"expectedRedirectUri":   expectedRedirect,
		"configuredRedirectUri": h.opts.GoogleRedirectURL,
		"expectedOrigin":        h.opts.BaseURL,
		"googleAuthUrl":         googleAuthEndpoint + "?" + q.Encode(),
		"instructions": []string{
			"1. Go to Google Cloud Console: https://console.cloud.google.com/apis/credentials",
			"2. Find your OAuth 2.0 Client ID",
			"3. Add this redirect URI: " + redirectURI,
			"4. Add this JavaScript origin: " + h.opts.BaseURL,
			"5. Ensure OAuth consent screen is configured",
			"6. Add your email to Test users if app is in Testing mode",
		},
	})
}
