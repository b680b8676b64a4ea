package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vetapi/clinic-api/internal/api/metrics"
	"github.com/vetapi/clinic-api/internal/core/domain"
	"github.com/vetapi/clinic-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login authenticates a staff member and returns an access/refresh token pair.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  loginResponse
// @Failure      500   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	if !result.Success {
		label := "invalid_credentials"
		if result.Message == domain.MsgUserNotFound {
			label = "user_not_found"
		}
		metrics.LoginsTotal.WithLabelValues(label).Inc()
		return c.JSON(http.StatusUnauthorized, toLoginResponse(result))
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, toLoginResponse(result))
}

// Refresh exchanges a refresh token for a new token pair.
//
// @Summary      Refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  loginResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if !result.Success {
		metrics.RefreshesTotal.WithLabelValues("failure").Inc()
		return c.JSON(http.StatusUnauthorized, toLoginResponse(result))
	}

	metrics.RefreshesTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, toLoginResponse(result))
}

// ForgotPassword starts a password reset. The response never reveals
// whether the email belongs to an account.
//
// @Summary      Forgot password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  passwordResetResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		metrics.PasswordResetsTotal.WithLabelValues("requested", "failure").Inc()
		return err
	}

	metrics.PasswordResetsTotal.WithLabelValues("requested", "success").Inc()
	return c.JSON(http.StatusOK, toPasswordResetResponse(result))
}

// ResetPassword sets a new password using a one-time reset token.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Reset token and new password"
// @Success      200   {object}  passwordResetResponse
// @Failure      400   {object}  passwordResetResponse
// @Failure      500   {object}  map[string]string
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	// Mismatch is reported ahead of field rules, matching the service.
	if req.NewPassword != req.ConfirmPassword {
		metrics.PasswordResetsTotal.WithLabelValues("completed", "failure").Inc()
		return c.JSON(http.StatusBadRequest, toPasswordResetResponse(domain.FailedReset(domain.MsgPasswordsMismatch)))
	}
	if err := validate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		metrics.PasswordResetsTotal.WithLabelValues("completed", "failure").Inc()
		return err
	}

	if !result.Success {
		metrics.PasswordResetsTotal.WithLabelValues("completed", "failure").Inc()
		return c.JSON(http.StatusBadRequest, toPasswordResetResponse(result))
	}

	metrics.PasswordResetsTotal.WithLabelValues("completed", "success").Inc()
	return c.JSON(http.StatusOK, toPasswordResetResponse(result))
}

// Me returns the account behind the bearer token.
//
// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  domain.Account
// @Failure      401   {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p.Account)
}
