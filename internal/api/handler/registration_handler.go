package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/authify/authify-gateway/internal/api/metrics"
	"github.com/authify/authify-gateway/internal/core/domain"
	"github.com/authify/authify-gateway/internal/core/service"
)

// Register submits the sign-up form. On success the session remembers the
// email so the verification step can be submitted without it.
//
// @Summary      Register
// @Tags         registration
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration form"
// @Success      201   {object}  flowResponse
// @Failure      400   {object}  map[string]any
// @Router       /api/register [post]
func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	svc, sess, err := h.registrationService(c)
	if err != nil {
		return err
	}

	if err := svc.Register(c.Request().Context(), domain.RegistrationDraft{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	}); err != nil {
		return err
	}

	sess.PendingVerification = req.Email
	return c.JSON(http.StatusCreated, flowResponse{
		Message:  "Registration successful! Please check your email for the OTP.",
		Redirect: "/verify-account",
	})
}

// VerifyAccount submits the account verification OTP.
//
// @Summary      Verify account
// @Tags         registration
// @Accept       json
// @Produce      json
// @Param        body  body      otpRequest  true  "OTP as a code or six digits"
// @Success      200   {object}  flowResponse
// @Failure      400   {object}  map[string]any
// @Router       /api/verify-account [post]
func (h *Handler) VerifyAccount(c echo.Context) error {
	var req otpRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	svc, sess, err := h.registrationService(c)
	if err != nil {
		return err
	}

	entry, err := req.entry()
	if err != nil {
		return err
	}
	email := req.Email
	if email == "" {
		email = sess.PendingVerification
	}

	if err := svc.Verify(c.Request().Context(), email, entry); err != nil {
		return err
	}

	sess.PendingVerification = ""
	return c.JSON(http.StatusOK, flowResponse{
		Message:  "Account verified successfully! Please log in.",
		Redirect: string(domain.DestinationLogin),
	})
}

// ResendVerification mails a new account OTP, at most once per cooldown.
//
// @Summary      Resend verification OTP
// @Tags         registration
// @Accept       json
// @Produce      json
// @Param        body  body      emailRequest  false  "Email, defaults to the pending one"
// @Success      200   {object}  flowResponse
// @Failure      429   {object}  map[string]any
// @Router       /api/verify-account/resend [post]
func (h *Handler) ResendVerification(c echo.Context) error {
	var req emailRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	svc, sess, err := h.registrationService(c)
	if err != nil {
		return err
	}
	email := req.Email
	if email == "" {
		email = sess.PendingVerification
	}

	err = svc.ResendVerification(c.Request().Context(), email)
	recordResend(service.FlowVerifyAccount, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, flowResponse{Message: "A new OTP has been sent to your email."})
}

func recordResend(flow string, err error) {
	switch {
	case err == nil:
		metrics.OTPResendsTotal.WithLabelValues(flow, "sent").Inc()
	case errors.Is(err, domain.ErrResendTooSoon):
		metrics.OTPResendsTotal.WithLabelValues(flow, "throttled").Inc()
	}
}
