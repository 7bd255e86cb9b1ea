package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"surveyhub/internal/auth"
	"surveyhub/internal/errors"
	"surveyhub/internal/service"
	"surveyhub/internal/session"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents an email login request.
type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	Token string `json:"token"`
}

// LoginResponse echoes the normalized email the code was sent to.
type LoginResponse struct {
	Email string `json:"email"`
}

// VerifyOTPRequest represents a one-time code submission.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

// APITokenResponse represents an issued bearer token.
type APITokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login godoc
// @Summary Request a sign-in code by email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Email and captcha token"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/email/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	email, err := h.authService.RequestLogin(c.Request().Context(), req.Email, req.Token, c.RealIP())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, LoginResponse{Email: email})
}

// VerifyOTP godoc
// @Summary Exchange a sign-in code for a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Email and code"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/email/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req VerifyOTPRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	user, err := h.authService.VerifyOTP(c.Request().Context(), req.Email, req.OTP)
	if err != nil {
		return err
	}

	sess := session.FromContext(c)
	if sess == nil {
		return errors.Unauthorized(errors.ReasonNoSession)
	}
	if err := sess.Update(func(session.Data) session.Data {
		return session.Data{ID: user.ID}
	}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Logout godoc
// @Summary Clear the session
// @Tags auth
// @Produce json
// @Success 200 {boolean} bool
// @Router /auth/email/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if sess := session.FromContext(c); sess != nil {
		sess.Clear()
	}
	return c.JSON(http.StatusOK, true)
}

// IssueToken godoc
// @Summary Issue a bearer token for scripted access
// @Tags auth
// @Produce json
// @Success 200 {object} APITokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/token [post]
func (h *AuthHandler) IssueToken(c echo.Context) error {
	token, expiresAt, err := h.authService.IssueAPIToken(c.Request().Context(), auth.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, APITokenResponse{Token: token, ExpiresAt: expiresAt})
}
