package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/authify/authify-gateway/internal/api/middleware"
	"github.com/authify/authify-gateway/internal/core/domain"
	"github.com/authify/authify-gateway/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Fake backend
// ---------------------------------------------------------------------------

// fakeBackend overrides the calls the handlers make. Anything else panics
// through the nil embedded interface.
type fakeBackend struct {
	ports.Backend

	mu    sync.Mutex
	calls []string

	loginFn       func(email, password string) (*ports.LoginOutput, error)
	logoutFn      func() error
	profileFn     func() (*ports.LoginOutput, error)
	registerFn    func(in ports.RegisterInput) error
	verifyFn      func(email, otp string) error
	sendResetFn   func(email string) error
	verifyResetFn func(email, otp string) error
	resetFn       func(email, otp, pw string) error
	listUsersFn   func(page, size int) (*domain.UserPage, error)
	promoteFn     func(id string) error
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) Login(_ context.Context, email, password string) (*ports.LoginOutput, error) {
	f.record("login")
	if f.loginFn != nil {
		return f.loginFn(email, password)
	}
	return &ports.LoginOutput{Email: email, Roles: domain.RoleUser}, nil
}

func (f *fakeBackend) Logout(context.Context) error {
	f.record("logout")
	if f.logoutFn != nil {
		return f.logoutFn()
	}
	return nil
}

func (f *fakeBackend) Profile(context.Context) (*ports.LoginOutput, error) {
	f.record("profile")
	if f.profileFn != nil {
		return f.profileFn()
	}
	return nil, domain.ErrUnauthenticated
}

func (f *fakeBackend) Register(_ context.Context, in ports.RegisterInput) error {
	f.record("register")
	if f.registerFn != nil {
		return f.registerFn(in)
	}
	return nil
}

func (f *fakeBackend) VerifyAccount(_ context.Context, email, otp string) error {
	f.record("verify-account")
	if f.verifyFn != nil {
		return f.verifyFn(email, otp)
	}
	return nil
}

func (f *fakeBackend) ResendVerification(context.Context, string) error {
	f.record("resend-verification")
	return nil
}

func (f *fakeBackend) SendResetOTP(_ context.Context, email string) error {
	f.record("send-otp")
	if f.sendResetFn != nil {
		return f.sendResetFn(email)
	}
	return nil
}

func (f *fakeBackend) VerifyResetOTP(_ context.Context, email, otp string) error {
	f.record("verify-otp")
	if f.verifyResetFn != nil {
		return f.verifyResetFn(email, otp)
	}
	return nil
}

func (f *fakeBackend) ResetPassword(_ context.Context, email, otp, pw string) error {
	f.record("reset-password")
	if f.resetFn != nil {
		return f.resetFn(email, otp, pw)
	}
	return nil
}

func (f *fakeBackend) ListUsers(_ context.Context, page, size int) (*domain.UserPage, error) {
	f.record("list-users")
	if f.listUsersFn != nil {
		return f.listUsersFn(page, size)
	}
	return &domain.UserPage{TotalPages: 1}, nil
}

func (f *fakeBackend) PromoteToAdmin(_ context.Context, id string) error {
	f.record("promote:" + id)
	if f.promoteFn != nil {
		return f.promoteFn(id)
	}
	return nil
}

func (f *fakeBackend) Cookies() []domain.Cookie { return nil }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type denyLimiter struct{ wait time.Duration }

func (denyLimiter) Start(context.Context, string, string) error { return nil }

func (l denyLimiter) Allow(context.Context, string, string) (bool, time.Duration, error) {
	return false, l.wait, nil
}

func newTestHandler(limiter ports.ResendLimiter) *Handler {
	return NewHandler(Deps{
		Limiter: limiter,
		Session: middleware.SessionConfig{
			CookieName: "authify_session",
			Now:        func() time.Time { return testNow },
		},
		Log: zerolog.Nop(),
	})
}

func newSession() *domain.Session {
	return domain.NewSession("sess-1", testNow, 24*time.Hour)
}

func newCtx(method, target, body string, sess *domain.Session, b *fakeBackend) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator(nil)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.WithSession(c, sess, b)
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func loggedIn(sess *domain.Session, roles string) {
	u := domain.NewUser("ann@example.com", "Ann Lee", roles)
	sess.State = domain.SessionState{User: &u}
}
