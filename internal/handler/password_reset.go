package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jobos/jobos-backend/internal/repository"
	"github.com/jobos/jobos-backend/internal/service"
)

// PasswordResetHandler exposes the OTP-based reset flow plus the
// authenticated password change.
type PasswordResetHandler struct {
	Resets *service.PasswordResetService
}

func NewPasswordResetHandler(resets *service.PasswordResetService) *PasswordResetHandler {
	return &PasswordResetHandler{Resets: resets}
}

type forgotReq struct {
	Email string `json:"email"`
}
type resetReq struct {
	Email       string `json:"email"`
	Otp         string `json:"otp"`
	NewPassword string `json:"new_password"`
}
type changeReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ForgotPassword issues a reset OTP for the email. The success and
// user-not-found messages are kept generic; only the status code
// differs.
func (h *PasswordResetHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Resets.RequestReset(ctx, req.Email); err != nil {
		var rl *repository.RateLimitedError
		switch {
		case errors.As(err, &rl):
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "too many requests",
				"retry_after": int(rl.RetryAfter.Seconds()),
			})
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unable to send reset code"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unable to send reset code"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "reset code sent"})
}

// ResetPassword verifies the OTP and sets the new password. A wrong
// code reports the remaining attempts; expiry and attempt exhaustion
// are terminal for the code.
func (h *PasswordResetHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Otp) == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, otp and new_password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Resets.VerifyAndReset(ctx, req.Email, req.Otp, req.NewPassword); err != nil {
		var wrong *repository.InvalidOtpError
		switch {
		case errors.As(err, &wrong):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":              "invalid code",
				"attempts_remaining": wrong.Remaining,
			})
		case errors.Is(err, repository.ErrOtpExpired):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "code expired"})
		case errors.Is(err, repository.ErrOtpAttemptsExceeded):
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many attempts, request a new code"})
		case errors.Is(err, repository.ErrInvalidToken), errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid code"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// ChangePassword is the authenticated variant. Requires JWTAuth; the
// user id comes from the bearer token, never from the body.
func (h *PasswordResetHandler) ChangePassword(c echo.Context) error {
	userID, _ := c.Get("user_id").(uint64)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req changeReq
	if err := c.Bind(&req); err != nil || req.OldPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "old_password and new_password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Resets.ChangePassword(ctx, userID, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "change password failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
