package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/authify/authify-gateway/internal/core/domain"
	"github.com/authify/authify-gateway/internal/core/ports"
	"github.com/authify/authify-gateway/internal/infrastructure/session"
)

func validDraft() domain.RegistrationDraft {
	return domain.RegistrationDraft{
		Name:            "Ann",
		Email:           "ann@example.com",
		Password:        "Secret123",
		ConfirmPassword: "Secret123",
	}
}

func TestRegister_MismatchedPasswordsSkipNetwork(t *testing.T) {
	b := &stubBackend{}
	svc := NewRegistrationService(b, nil, nil, zerolog.Nop())

	d := validDraft()
	d.ConfirmPassword = "Secret124"
	err := svc.Register(context.Background(), d)

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Fields["confirmPassword"] != "Passwords don't match." {
		t.Fatalf("unexpected message: %q", ve.Fields["confirmPassword"])
	}
	if len(b.calls) != 0 {
		t.Fatalf("expected no backend calls, got %v", b.calls)
	}
}

func TestRegister_InvalidEmailSkipsNetwork(t *testing.T) {
	b := &stubBackend{}
	svc := NewRegistrationService(b, nil, nil, zerolog.Nop())

	d := validDraft()
	d.Email = "abc"
	err := svc.Register(context.Background(), d)

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Fields["email"] != "Invalid email format." {
		t.Fatalf("unexpected message: %q", ve.Fields["email"])
	}
	if len(b.calls) != 0 {
		t.Fatalf("expected no backend calls, got %v", b.calls)
	}
}

func TestRegister_SendsDraft(t *testing.T) {
	var got ports.RegisterInput
	b := &stubBackend{registerFn: func(in ports.RegisterInput) error {
		got = in
		return nil
	}}
	svc := NewRegistrationService(b, nil, nil, zerolog.Nop())

	if err := svc.Register(context.Background(), validDraft()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Email != "ann@example.com" || got.ConfirmPassword != "Secret123" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestRegister_ServerMessageSurfaces(t *testing.T) {
	b := &stubBackend{registerFn: func(ports.RegisterInput) error {
		return errors.Join(domain.ErrValidation, errors.New("Email already exists"))
	}}
	svc := NewRegistrationService(b, nil, nil, zerolog.Nop())

	err := svc.Register(context.Background(), validDraft())
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerify_JoinsCells(t *testing.T) {
	var code string
	b := &stubBackend{verifyFn: func(_, otp string) error {
		code = otp
		return nil
	}}
	svc := NewRegistrationService(b, nil, nil, zerolog.Nop())

	entry, err := domain.EntryFromCells([]string{"1", "2", "3", "4", "5", "6"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Verify(context.Background(), "ann@example.com", entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "123456" {
		t.Fatalf("expected 123456, got %q", code)
	}
}

func TestVerify_IncompleteSkipsNetwork(t *testing.T) {
	b := &stubBackend{}
	svc := NewRegistrationService(b, nil, nil, zerolog.Nop())

	err := svc.Verify(context.Background(), "ann@example.com", domain.EntryFromCode("12345"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(b.calls) != 0 {
		t.Fatalf("expected no backend calls, got %v", b.calls)
	}
}

func TestVerify_MissingEmailIsInvalidAccess(t *testing.T) {
	svc := NewRegistrationService(&stubBackend{}, nil, nil, zerolog.Nop())

	err := svc.Verify(context.Background(), "", domain.EntryFromCode("123456"))
	if !errors.Is(err, domain.ErrInvalidAccess) {
		t.Fatalf("expected ErrInvalidAccess, got %v", err)
	}
}

func TestResendVerification_Cooldown(t *testing.T) {
	b := &stubBackend{}
	lim := &stubLimiter{allow: false, wait: 42500 * time.Millisecond}
	svc := NewRegistrationService(b, lim, nil, zerolog.Nop())

	err := svc.ResendVerification(context.Background(), "ann@example.com")
	if !errors.Is(err, domain.ErrResendTooSoon) {
		t.Fatalf("expected ErrResendTooSoon, got %v", err)
	}
	var re *ResendError
	if !errors.As(err, &re) || re.RetryAfterSeconds != 43 {
		t.Fatalf("expected 43s retry, got %+v", re)
	}
	if len(b.calls) != 0 {
		t.Fatalf("expected no backend calls, got %v", b.calls)
	}
	if lim.keys[0] != FlowVerifyAccount+":ann@example.com" {
		t.Fatalf("unexpected limiter key %q", lim.keys[0])
	}
}

func TestResendVerification_Allowed(t *testing.T) {
	b := &stubBackend{}
	svc := NewRegistrationService(b, &stubLimiter{allow: true}, nil, zerolog.Nop())

	if err := svc.ResendVerification(context.Background(), "ann@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.calls) != 1 || b.calls[0] != "resend-verification" {
		t.Fatalf("expected one resend call, got %v", b.calls)
	}
}

func TestRegister_StartsResendCooldown(t *testing.T) {
	lim := &stubLimiter{allow: true}
	svc := NewRegistrationService(&stubBackend{}, lim, nil, zerolog.Nop())

	if err := svc.Register(context.Background(), validDraft()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lim.started) != 1 || lim.started[0] != FlowVerifyAccount+":ann@example.com" {
		t.Fatalf("expected cooldown started for the account flow, got %v", lim.started)
	}
}

func TestRegister_FailureLeavesCooldownAlone(t *testing.T) {
	lim := &stubLimiter{allow: true}
	b := &stubBackend{registerFn: func(ports.RegisterInput) error { return domain.ErrServer }}
	svc := NewRegistrationService(b, lim, nil, zerolog.Nop())

	if err := svc.Register(context.Background(), validDraft()); !errors.Is(err, domain.ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
	if len(lim.started) != 0 {
		t.Fatalf("expected no cooldown, got %v", lim.started)
	}
}

func TestRegister_CooldownFailureDoesNotFailRegistration(t *testing.T) {
	lim := &stubLimiter{err: errors.New("redis down")}
	svc := NewRegistrationService(&stubBackend{}, lim, nil, zerolog.Nop())

	if err := svc.Register(context.Background(), validDraft()); err != nil {
		t.Fatalf("expected registration to succeed, got %v", err)
	}
}

func TestResendVerification_ImmediatelyAfterRegister(t *testing.T) {
	b := &stubBackend{}
	svc := NewRegistrationService(b, session.NewMemoryLimiter(60*time.Second), nil, zerolog.Nop())
	ctx := context.Background()

	if err := svc.Register(ctx, validDraft()); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := svc.ResendVerification(ctx, "ann@example.com")
	if !errors.Is(err, domain.ErrResendTooSoon) {
		t.Fatalf("expected ErrResendTooSoon, got %v", err)
	}
	var re *ResendError
	if !errors.As(err, &re) || re.RetryAfterSeconds != 60 {
		t.Fatalf("expected 60s retry, got %+v", re)
	}
	if len(b.calls) != 1 || b.calls[0] != "register" {
		t.Fatalf("expected only the register call, got %v", b.calls)
	}
}
