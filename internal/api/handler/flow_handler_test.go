package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/authify/authify-gateway/internal/core/domain"
	"github.com/authify/authify-gateway/internal/core/ports"
	"github.com/authify/authify-gateway/internal/core/service"
)

// --- Registration ---

func TestRegister_RemembersPendingEmail(t *testing.T) {
	var got ports.RegisterInput
	b := &fakeBackend{registerFn: func(in ports.RegisterInput) error { got = in; return nil }}
	sess := newSession()
	c, rec := newCtx(http.MethodPost, "/api/register",
		`{"name":"Ann Lee","email":"ann@example.com","password":"Secret123","confirmPassword":"Secret123"}`, sess, b)

	if err := newTestHandler(nil).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if decode(t, rec)["redirect"] != "/verify-account" {
		t.Fatal("expected redirect to /verify-account")
	}
	if got.Name != "Ann Lee" || got.ConfirmPassword != "Secret123" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if sess.PendingVerification != "ann@example.com" {
		t.Fatalf("expected pending email, got %q", sess.PendingVerification)
	}
}

func TestRegister_MismatchedPasswords(t *testing.T) {
	b := &fakeBackend{}
	c, _ := newCtx(http.MethodPost, "/api/register",
		`{"name":"Ann","email":"ann@example.com","password":"Secret123","confirmPassword":"Secret321"}`, newSession(), b)

	err := newTestHandler(nil).Register(c)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Fields["confirmPassword"] != "Passwords don't match." {
		t.Fatalf("expected confirmPassword error, got %v", err)
	}
	if len(b.calls) != 0 {
		t.Fatalf("expected no backend calls, got %v", b.calls)
	}
}

func TestVerifyAccount_DigitsAndPendingEmail(t *testing.T) {
	var email, otp string
	b := &fakeBackend{verifyFn: func(e, o string) error { email, otp = e, o; return nil }}
	sess := newSession()
	sess.PendingVerification = "ann@example.com"
	c, rec := newCtx(http.MethodPost, "/api/verify-account", `{"digits":["1","2","3","4","5","6"]}`, sess, b)

	if err := newTestHandler(nil).VerifyAccount(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if email != "ann@example.com" || otp != "123456" {
		t.Fatalf("unexpected verify call: %q %q", email, otp)
	}
	if decode(t, rec)["redirect"] != "/login" {
		t.Fatal("expected redirect to /login")
	}
	if sess.PendingVerification != "" {
		t.Fatal("expected pending email cleared")
	}
}

func TestVerifyAccount_ShortDigitsRejected(t *testing.T) {
	b := &fakeBackend{}
	sess := newSession()
	sess.PendingVerification = "ann@example.com"
	c, _ := newCtx(http.MethodPost, "/api/verify-account", `{"digits":["1","2","3"]}`, sess, b)

	if err := newTestHandler(nil).VerifyAccount(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(b.calls) != 0 {
		t.Fatalf("expected no backend calls, got %v", b.calls)
	}
}

func TestVerifyAccount_NoEmailAnywhere(t *testing.T) {
	c, _ := newCtx(http.MethodPost, "/api/verify-account", `{"otp":"123456"}`, newSession(), &fakeBackend{})

	if err := newTestHandler(nil).VerifyAccount(c); !errors.Is(err, domain.ErrInvalidAccess) {
		t.Fatalf("expected ErrInvalidAccess, got %v", err)
	}
}

func TestResendVerification_Throttled(t *testing.T) {
	b := &fakeBackend{}
	sess := newSession()
	sess.PendingVerification = "ann@example.com"
	c, _ := newCtx(http.MethodPost, "/api/verify-account/resend", `{}`, sess, b)

	err := newTestHandler(denyLimiter{wait: 30 * time.Second}).ResendVerification(c)
	var re *service.ResendError
	if !errors.As(err, &re) || re.RetryAfterSeconds != 30 {
		t.Fatalf("expected 30s ResendError, got %v", err)
	}
	if len(b.calls) != 0 {
		t.Fatalf("expected no backend calls, got %v", b.calls)
	}
}

func TestResendVerification_Sent(t *testing.T) {
	b := &fakeBackend{}
	c, rec := newCtx(http.MethodPost, "/api/verify-account/resend", `{"email":"ann@example.com"}`, newSession(), b)

	if err := newTestHandler(nil).ResendVerification(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || len(b.calls) != 1 {
		t.Fatalf("expected one resend, got %d %v", rec.Code, b.calls)
	}
}

// --- Password reset ---

func TestResetFlow_CarriesStateBetweenSteps(t *testing.T) {
	var resetWith [3]string
	b := &fakeBackend{resetFn: func(email, otp, pw string) error {
		resetWith = [3]string{email, otp, pw}
		return nil
	}}
	sess := newSession()
	h := newTestHandler(nil)

	c, _ := newCtx(http.MethodPost, "/api/password/forgot", `{"email":"ann@example.com"}`, sess, b)
	if err := h.ForgotPassword(c); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	if sess.PendingReset == nil || sess.PendingReset.Email != "ann@example.com" {
		t.Fatalf("expected pending reset email, got %+v", sess.PendingReset)
	}

	c, rec := newCtx(http.MethodPost, "/api/password/verify-otp", `{"otp":"654321"}`, sess, b)
	if err := h.VerifyResetOTP(c); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if decode(t, rec)["redirect"] != "/new-password" {
		t.Fatal("expected redirect to /new-password")
	}

	c, rec = newCtx(http.MethodPost, "/api/password/reset", `{"password":"NewPass1","confirmPassword":"NewPass1"}`, sess, b)
	if err := h.ResetPassword(c); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if resetWith != [3]string{"ann@example.com", "654321", "NewPass1"} {
		t.Fatalf("unexpected reset call: %v", resetWith)
	}
	if decode(t, rec)["redirect"] != "/login" {
		t.Fatal("expected redirect to /login")
	}
	if sess.PendingReset != nil {
		t.Fatal("expected reset state cleared")
	}
}

func TestResetPassword_WithoutVerifiedOTP(t *testing.T) {
	sess := newSession()
	sess.PendingReset = &domain.PendingReset{Email: "ann@example.com"}
	c, _ := newCtx(http.MethodPost, "/api/password/reset", `{"password":"NewPass1","confirmPassword":"NewPass1"}`, sess, &fakeBackend{})

	if err := newTestHandler(nil).ResetPassword(c); !errors.Is(err, domain.ErrInvalidAccess) {
		t.Fatalf("expected ErrInvalidAccess, got %v", err)
	}
}

func TestVerifyResetOTP_WithoutRequest(t *testing.T) {
	c, _ := newCtx(http.MethodPost, "/api/password/verify-otp", `{"otp":"654321"}`, newSession(), &fakeBackend{})

	if err := newTestHandler(nil).VerifyResetOTP(c); !errors.Is(err, domain.ErrInvalidAccess) {
		t.Fatalf("expected ErrInvalidAccess, got %v", err)
	}
}

func TestVerifyResetOTP_RejectedKeepsEmail(t *testing.T) {
	b := &fakeBackend{verifyResetFn: func(string, string) error { return domain.ErrValidation }}
	sess := newSession()
	sess.PendingReset = &domain.PendingReset{Email: "ann@example.com"}
	c, _ := newCtx(http.MethodPost, "/api/password/verify-otp", `{"otp":"000000"}`, sess, b)

	if err := newTestHandler(nil).VerifyResetOTP(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if sess.PendingReset.Email != "ann@example.com" || sess.PendingReset.OTP != "" {
		t.Fatalf("unexpected reset state: %+v", sess.PendingReset)
	}
}

func TestResendResetOTP_Throttled(t *testing.T) {
	sess := newSession()
	sess.PendingReset = &domain.PendingReset{Email: "ann@example.com"}
	c, _ := newCtx(http.MethodPost, "/api/password/resend", "", sess, &fakeBackend{})

	if err := newTestHandler(denyLimiter{wait: time.Second}).ResendResetOTP(c); !errors.Is(err, domain.ErrResendTooSoon) {
		t.Fatalf("expected ErrResendTooSoon, got %v", err)
	}
}

func TestPasswordStrength(t *testing.T) {
	c, rec := newCtx(http.MethodPost, "/api/password/strength", `{"password":"Abcdefg1!"}`, newSession(), &fakeBackend{})

	if err := newTestHandler(nil).PasswordStrength(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(decode(t, rec)) == 0 {
		t.Fatal("expected a strength payload")
	}
}
