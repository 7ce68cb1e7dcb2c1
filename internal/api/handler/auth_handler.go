package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/capachica/turismo-api/internal/api/middleware"
	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new account with the default role.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  ports.RegisterResult
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}, middleware.RequestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// Login authenticates a user and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  ports.LoginResult
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, middleware.RequestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Logout revokes the token the request was made with.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.MessageResult
// @Failure      401  {object}  map[string]any
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	res, err := h.authService.Logout(c.Request().Context(), identity.AccountID, middleware.RawToken(c), middleware.RequestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// VerifyEmail consumes a verification token.
//
// @Summary      Verify email address
// @Tags         auth
// @Produce      json
// @Param        token  path      string  true  "Verification token"
// @Success      200    {object}  ports.MessageResult
// @Failure      400    {object}  map[string]any
// @Router       /api/auth/verify-email/{token} [get]
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return domain.ErrInvalidVerificationToken
	}

	res, err := h.authService.VerifyEmail(c.Request().Context(), token, middleware.RequestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// ResendVerification issues a fresh verification token.
//
// @Summary      Resend verification email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      emailRequest  true  "Account email"
// @Success      200   {object}  ports.VerificationResult
// @Failure      400   {object}  map[string]any
// @Router       /api/auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req emailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.ResendVerification(c.Request().Context(), req.Email, middleware.RequestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// RequestPasswordReset answers identically whether or not the email exists.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      emailRequest  true  "Account email"
// @Success      200   {object}  ports.MessageResult
// @Failure      400   {object}  map[string]any
// @Router       /api/auth/request-password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req emailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.RequestPasswordReset(c.Request().Context(), req.Email, middleware.RequestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// ResetPassword sets a new password using a reset token.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Reset token and new password"
// @Success      200   {object}  ports.MessageResult
// @Failure      400   {object}  map[string]any
// @Router       /api/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.Password, middleware.RequestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
