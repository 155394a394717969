package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/authify/authify-gateway/internal/core/domain"
	"github.com/authify/authify-gateway/internal/core/ports"
)

// ResetService drives the three-step password reset:
// request OTP → verify OTP → set new password.
type ResetService struct {
	backend   ports.AuthBackend
	limiter   ports.ResendLimiter
	validator *FormValidator
	log       zerolog.Logger
}

func NewResetService(backend ports.AuthBackend, limiter ports.ResendLimiter, validator *FormValidator, log zerolog.Logger) *ResetService {
	if validator == nil {
		validator = NewFormValidator()
	}
	return &ResetService{backend: backend, limiter: limiter, validator: validator, log: log}
}

// RequestOTP asks the backend to mail a reset code to email.
func (s *ResetService) RequestOTP(ctx context.Context, email string) error {
	if err := s.validator.Validate(domain.EmailForm{Email: email}); err != nil {
		return err
	}
	if err := s.backend.SendResetOTP(ctx, email); err != nil {
		return fmt.Errorf("send reset otp: %w", err)
	}
	s.log.Info().Str("email", email).Msg("reset otp requested")
	startCooldown(ctx, s.limiter, FlowPasswordReset, email, s.log)
	return nil
}

// ResendOTP requests another reset code, subject to the cooldown.
func (s *ResetService) ResendOTP(ctx context.Context, email string) error {
	if email == "" {
		return domain.ErrInvalidAccess
	}
	if err := gateResend(ctx, s.limiter, FlowPasswordReset, email); err != nil {
		return err
	}
	if err := s.backend.SendResetOTP(ctx, email); err != nil {
		return fmt.Errorf("resend reset otp: %w", err)
	}
	return nil
}

// VerifyOTP checks the reset code and returns it for the final step.
func (s *ResetService) VerifyOTP(ctx context.Context, email string, entry domain.OTPEntry) (string, error) {
	if email == "" {
		return "", domain.ErrInvalidAccess
	}
	code, err := entry.Code()
	if err != nil {
		return "", err
	}
	if err := s.backend.VerifyResetOTP(ctx, email, code); err != nil {
		return "", fmt.Errorf("verify reset otp: %w", err)
	}
	return code, nil
}

// Complete sets the new password. The password rules are enforced here even
// though the backend has its own.
func (s *ResetService) Complete(ctx context.Context, email, otp, newPassword, confirm string) error {
	if email == "" || otp == "" {
		return domain.ErrInvalidAccess
	}
	if err := s.validator.Validate(domain.NewPasswordForm{Password: newPassword, ConfirmPassword: confirm}); err != nil {
		return err
	}
	if err := s.backend.ResetPassword(ctx, email, otp, newPassword); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	s.log.Info().Str("email", email).Msg("password reset")
	return nil
}

// PasswordStrength rates a candidate password for the meter.
func (s *ResetService) PasswordStrength(password string) domain.Strength {
	return domain.PasswordStrength(password)
}
