package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/authify/authify-gateway/internal/core/domain"
	"github.com/authify/authify-gateway/internal/core/service"
)

// ForgotPassword starts the reset flow by mailing an OTP.
//
// @Summary      Request password reset OTP
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      emailRequest  true  "Account email"
// @Success      200   {object}  flowResponse
// @Failure      400   {object}  map[string]any
// @Router       /api/password/forgot [post]
func (h *Handler) ForgotPassword(c echo.Context) error {
	var req emailRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	svc, sess, err := h.resetService(c)
	if err != nil {
		return err
	}
	if err := svc.RequestOTP(c.Request().Context(), req.Email); err != nil {
		return err
	}

	sess.PendingReset = &domain.PendingReset{Email: req.Email}
	return c.JSON(http.StatusOK, flowResponse{
		Message:  "OTP sent to your email.",
		Redirect: "/reset-password-otp",
	})
}

// ResendResetOTP mails another reset OTP, at most once per cooldown.
//
// @Summary      Resend password reset OTP
// @Tags         password
// @Produce      json
// @Success      200  {object}  flowResponse
// @Failure      400  {object}  map[string]any
// @Failure      429  {object}  map[string]any
// @Router       /api/password/resend [post]
func (h *Handler) ResendResetOTP(c echo.Context) error {
	svc, sess, err := h.resetService(c)
	if err != nil {
		return err
	}
	if sess.PendingReset == nil {
		return domain.ErrInvalidAccess
	}

	err = svc.ResendOTP(c.Request().Context(), sess.PendingReset.Email)
	recordResend(service.FlowPasswordReset, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, flowResponse{Message: "A new OTP has been sent to your email."})
}

// VerifyResetOTP checks the reset OTP and remembers it for the last step.
//
// @Summary      Verify password reset OTP
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      otpRequest  true  "OTP as a code or six digits"
// @Success      200   {object}  flowResponse
// @Failure      400   {object}  map[string]any
// @Router       /api/password/verify-otp [post]
func (h *Handler) VerifyResetOTP(c echo.Context) error {
	var req otpRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	svc, sess, err := h.resetService(c)
	if err != nil {
		return err
	}
	if sess.PendingReset == nil {
		return domain.ErrInvalidAccess
	}
	entry, err := req.entry()
	if err != nil {
		return err
	}

	code, err := svc.VerifyOTP(c.Request().Context(), sess.PendingReset.Email, entry)
	if err != nil {
		return err
	}

	sess.PendingReset.OTP = code
	return c.JSON(http.StatusOK, flowResponse{
		Message:  "OTP verified.",
		Redirect: "/new-password",
	})
}

// ResetPassword sets the new password using the email and OTP from the
// earlier steps.
//
// @Summary      Set new password
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      newPasswordRequest  true  "New password"
// @Success      200   {object}  flowResponse
// @Failure      400   {object}  map[string]any
// @Router       /api/password/reset [post]
func (h *Handler) ResetPassword(c echo.Context) error {
	var req newPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	svc, sess, err := h.resetService(c)
	if err != nil {
		return err
	}
	if sess.PendingReset == nil || sess.PendingReset.OTP == "" {
		return domain.ErrInvalidAccess
	}

	if err := svc.Complete(c.Request().Context(), sess.PendingReset.Email, sess.PendingReset.OTP, req.Password, req.ConfirmPassword); err != nil {
		return err
	}

	sess.PendingReset = nil
	return c.JSON(http.StatusOK, flowResponse{
		Message:  "Password reset successfully! Please log in.",
		Redirect: string(domain.DestinationLogin),
	})
}

// PasswordStrength rates a candidate password for the strength meter.
//
// @Summary      Password strength
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      strengthRequest  true  "Candidate password"
// @Success      200   {object}  domain.Strength
// @Router       /api/password/strength [post]
func (h *Handler) PasswordStrength(c echo.Context) error {
	var req strengthRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, domain.PasswordStrength(req.Password))
}
