package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"civictrack/internal/auth/credentials"
	"civictrack/internal/auth/verification"
	"civictrack/internal/logger"
)

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// register creates an unverified CITIZEN account and sends a
// verification code. The caller must verify before the account is
// considered confirmed; no session is created here.
func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_request", "invalid request")
		return
	}

	userID, err := h.registrar.Register(c.Request.Context(), credentials.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	switch {
	case errors.Is(err, credentials.ErrAlreadyRegistered):
		abortError(c, http.StatusConflict, "already_registered", "An account with this email already exists")
		return
	case errors.Is(err, credentials.ErrInvalidEmail):
		abortError(c, http.StatusBadRequest, "invalid_email", "Please enter a valid email address")
		return
	case errors.Is(err, credentials.ErrWeakPassword):
		abortError(c, http.StatusBadRequest, "weak_password", "Password must be at least 8 characters long")
		return
	case errors.Is(err, credentials.ErrMissingName):
		abortError(c, http.StatusBadRequest, "missing_name", "First and last name are required")
		return
	case err != nil:
		logger.Error("registration failed", map[string]any{"error": err.Error()})
		abortError(c, http.StatusInternalServerError, "internal_error", "Registration failed. Please try again.")
		return
	}

	email := strings.TrimSpace(req.Email)
	if err := h.verifier.Issue(c.Request.Context(), email); err != nil {
		logger.Error("verification code not sent", map[string]any{"user_id": userID, "error": err.Error()})
	}

	logger.Info("user registered", map[string]any{"user_id": userID})
	c.JSON(http.StatusCreated, gin.H{
		"message":           "Account created successfully! Please check your email for a verification code.",
		"userId":            userID,
		"needsVerification": true,
	})
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *Handler) verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Code == "" {
		abortError(c, http.StatusBadRequest, "invalid_request", "Email and verification code are required")
		return
	}

	u, err := h.verifier.Verify(c.Request.Context(), req.Email, req.Code)
	switch {
	case errors.Is(err, verification.ErrInvalidCode):
		abortError(c, http.StatusBadRequest, "invalid_code", "Invalid verification code")
		return
	case errors.Is(err, verification.ErrExpiredCode):
		abortError(c, http.StatusBadRequest, "expired_code", "Verification code has expired. Please request a new one.")
		return
	case errors.Is(err, verification.ErrUnknownUser):
		abortError(c, http.StatusNotFound, "not_found", "User not found")
		return
	case err != nil:
		logger.Error("verification failed", map[string]any{"error": err.Error()})
		abortError(c, http.StatusInternalServerError, "internal_error", "Verification failed. Please try again.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified successfully! You can now log in.",
		"user":    u,
	})
}

type resendRequest struct {
	Email string `json:"email"`
}

func (h *Handler) resend(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		abortError(c, http.StatusBadRequest, "invalid_request", "Email is required")
		return
	}

	err := h.verifier.Resend(c.Request.Context(), req.Email)
	switch {
	case errors.Is(err, verification.ErrUnknownUser):
		abortError(c, http.StatusNotFound, "not_found", "User not found")
		return
	case errors.Is(err, verification.ErrAlreadyVerified):
		abortError(c, http.StatusConflict, "already_verified", "Email is already verified")
		return
	case err != nil:
		logger.Error("verification resend failed", map[string]any{"error": err.Error()})
		abortError(c, http.StatusInternalServerError, "internal_error", "Failed to send verification code")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "New verification code sent to your email!"})
}
