package service

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/authify/authify-gateway/internal/core/domain"
	"github.com/authify/authify-gateway/internal/core/ports"
)

const (
	FlowVerifyAccount = "verify_account"
	FlowPasswordReset = "password_reset"
)

// ResendError reports how long the caller must wait before another OTP.
type ResendError struct {
	RetryAfterSeconds int
}

func (e *ResendError) Error() string {
	return fmt.Sprintf("Please wait %ds before requesting a new code", e.RetryAfterSeconds)
}

func (e *ResendError) Is(target error) bool {
	return target == domain.ErrResendTooSoon
}

// RegistrationService drives sign-up and account verification.
type RegistrationService struct {
	backend   ports.AuthBackend
	limiter   ports.ResendLimiter
	validator *FormValidator
	log       zerolog.Logger
}

func NewRegistrationService(backend ports.AuthBackend, limiter ports.ResendLimiter, validator *FormValidator, log zerolog.Logger) *RegistrationService {
	if validator == nil {
		validator = NewFormValidator()
	}
	return &RegistrationService{backend: backend, limiter: limiter, validator: validator, log: log}
}

// Register validates the draft locally and submits it. The backend answers
// by mailing a verification OTP to the draft's email.
func (s *RegistrationService) Register(ctx context.Context, draft domain.RegistrationDraft) error {
	if err := s.validator.Validate(draft); err != nil {
		return err
	}

	if err := s.backend.Register(ctx, ports.RegisterInput{
		Name:            draft.Name,
		Email:           draft.Email,
		Password:        draft.Password,
		ConfirmPassword: draft.ConfirmPassword,
	}); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("email", draft.Email).Msg("registration submitted")
	startCooldown(ctx, s.limiter, FlowVerifyAccount, draft.Email, s.log)
	return nil
}

// Verify submits the account OTP. The entry must be complete.
func (s *RegistrationService) Verify(ctx context.Context, email string, entry domain.OTPEntry) error {
	if email == "" {
		return domain.ErrInvalidAccess
	}
	code, err := entry.Code()
	if err != nil {
		return err
	}

	if err := s.backend.VerifyAccount(ctx, email, code); err != nil {
		return fmt.Errorf("verify account: %w", err)
	}

	s.log.Info().Str("email", email).Msg("account verified")
	return nil
}

// ResendVerification mails a new account OTP, subject to the cooldown.
func (s *RegistrationService) ResendVerification(ctx context.Context, email string) error {
	if email == "" {
		return domain.ErrInvalidAccess
	}
	if err := gateResend(ctx, s.limiter, FlowVerifyAccount, email); err != nil {
		return err
	}

	if err := s.backend.ResendVerification(ctx, email); err != nil {
		return fmt.Errorf("resend verification: %w", err)
	}
	return nil
}

// startCooldown opens the resend window after the first OTP went out. The
// OTP is already on its way, so a limiter failure is only logged.
func startCooldown(ctx context.Context, limiter ports.ResendLimiter, flow, email string, log zerolog.Logger) {
	if limiter == nil {
		return
	}
	if err := limiter.Start(ctx, flow, email); err != nil {
		log.Warn().Err(err).Str("flow", flow).Str("email", email).Msg("resend cooldown not started")
	}
}

func gateResend(ctx context.Context, limiter ports.ResendLimiter, flow, email string) error {
	if limiter == nil {
		return nil
	}
	ok, wait, err := limiter.Allow(ctx, flow, email)
	if err != nil {
		return fmt.Errorf("resend cooldown: %w", err)
	}
	if !ok {
		return &ResendError{RetryAfterSeconds: int(math.Ceil(wait.Seconds()))}
	}
	return nil
}
