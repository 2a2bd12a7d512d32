package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/asso7/concert_ledger/internal/core/domain"
	portssvc "github.com/asso7/concert_ledger/internal/core/ports/services"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/asso7/concert_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// loginRate caps login attempts per client IP.
const loginRate = "5-M"

// authHandler handles operator sign-in.
type authHandler struct {
	operatorService portssvc.OperatorSvcFacade
	tokenService    portssvc.TokenSvcFacade
	googleService   portssvc.GoogleOAuthHandlerSvcFacade
}

func newAuthHandler(services *portssvc.ServiceContainer) *authHandler {
	return &authHandler{
		operatorService: services.Operator,
		tokenService:    services.TokenService,
		googleService:   services.GoogleOAuthHandler,
	}
}

// registerAuthRoutes sets up the public authentication routes.
func registerAuthRoutes(r *gin.Engine, services *portssvc.ServiceContainer) error {
	h := newAuthHandler(services)

	ipLimiter, err := middleware.NewMemoryLimiter(loginRate)
	if err != nil {
		return err
	}
	limitMiddleware := middleware.GinMiddlewarize(ipLimiter)

	auth := r.Group("/auth")
	{
		auth.POST("/login", limitMiddleware, h.login)
		auth.POST("/google", limitMiddleware, h.loginWithGoogle)
	}
	return nil
}

// login godoc
// @Summary Operator login
// @Description Authenticates an operator and returns a JWT.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Login Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/login [post]
func (h *authHandler) login(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	operator, err := h.operatorService.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			logger.Warn("Login rejected", slog.String("username", req.Username))
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid username or password"})
			return
		}
		respondError(c, err, "authenticate operator")
		return
	}

	h.respondWithToken(c, operator)
}

// loginWithGoogle godoc
// @Summary Operator login with Google
// @Description Exchanges a Google authorization code, validates the ID token and signs in the operator owning the email.
// @Tags auth
// @Accept json
// @Produce json
// @Param code body dto.GoogleLoginRequest true "Authorization code"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /auth/google [post]
func (h *authHandler) loginWithGoogle(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	var req dto.GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	oauth2Token, err := h.googleService.ExchangeCodeForToken(ctx, req.Code)
	if err != nil {
		logger.Error("Failed to exchange authorization code with Google", slog.String("error", err.Error()))
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "invalid_grant") || strings.Contains(msg, "bad request") {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid or expired authorization code"})
			return
		}
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Failed to communicate with Google"})
		return
	}

	idTokenString, ok := oauth2Token.Extra("id_token").(string)
	if !ok || idTokenString == "" {
		logger.Error("ID token not found in Google's token response")
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Google did not return an ID token"})
		return
	}

	payload, err := h.googleService.ValidateGoogleIDToken(ctx, idTokenString)
	if err != nil {
		logger.Warn("Google ID token validation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid Google ID token"})
		return
	}

	email, _ := payload.Claims["email"].(string)
	emailVerified, _ := payload.Claims["email_verified"].(bool)
	if email == "" || !emailVerified {
		logger.Warn("Google account has no verified email", slog.String("google_user_id", payload.Subject))
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Google account email is not verified"})
		return
	}

	operator, err := h.operatorService.FindActiveByEmail(ctx, email)
	if err != nil {
		if code := statusFor(err); code == http.StatusNotFound || code == http.StatusUnauthorized {
			logger.Warn("No active operator for Google account", slog.String("email", email))
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "No operator is registered for this Google account"})
			return
		}
		respondError(c, err, "look up operator")
		return
	}

	h.respondWithToken(c, operator)
}

// respondWithToken signs an access token for the operator and writes the login response.
func (h *authHandler) respondWithToken(c *gin.Context, operator *domain.Operator) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	token, expiresAt, err := h.tokenService.GenerateAccessToken(c.Request.Context(), operator)
	if err != nil {
		logger.Error("Failed to sign access token", slog.String("error", err.Error()), slog.String("operator_id", operator.OperatorID))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate token"})
		return
	}
	logger.Info("Operator signed in", slog.String("operator_id", operator.OperatorID))
	c.JSON(http.StatusOK, dto.LoginResponse{Token: token, ExpiresAt: expiresAt})
}
