package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/authify/authify-gateway/internal/core/domain"
	"github.com/authify/authify-gateway/internal/core/ports"
	"github.com/authify/authify-gateway/internal/infrastructure/session"
)

// fakeBackend only implements Cookies; every other call panics via the nil
// embedded interface.
type fakeBackend struct {
	ports.Backend
	cookies []domain.Cookie
}

func (f *fakeBackend) Cookies() []domain.Cookie { return f.cookies }

type fakeFactory struct {
	opened  [][]domain.Cookie
	backend *fakeBackend
}

func (f *fakeFactory) Open(cookies []domain.Cookie) (ports.Backend, error) {
	f.opened = append(f.opened, cookies)
	return f.backend, nil
}

func (f *fakeFactory) Ping(context.Context) error { return nil }

type failingStore struct{ session.MemoryStore }

func (*failingStore) Get(context.Context, string) (*domain.Session, error) {
	return nil, errors.New("store down")
}

func newSessionConfig(store ports.SessionStore, f *fakeFactory) SessionConfig {
	return SessionConfig{
		Store:      store,
		Backends:   f,
		CookieName: "authify_session",
		TTL:        time.Hour,
		Log:        zerolog.Nop(),
	}
}

func TestSession_CreatesAndPersists(t *testing.T) {
	e := echo.New()
	store := session.NewMemoryStore()
	f := &fakeFactory{backend: &fakeBackend{cookies: []domain.Cookie{{Name: "jwt", Value: "tok"}}}}
	mw := Session(newSessionConfig(store, f))

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *domain.Session
	err := mw(func(c echo.Context) error {
		seen = SessionFrom(c)
		if BackendFrom(c) == nil {
			t.Fatalf("expected backend in context")
		}
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if seen == nil || seen.ID == "" {
		t.Fatalf("expected a fresh session")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "authify_session" || cookies[0].Value != seen.ID || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}

	stored, err := store.Get(context.Background(), seen.ID)
	if err != nil {
		t.Fatalf("expected stored session: %v", err)
	}
	if len(stored.BackendCookies) != 1 || stored.BackendCookies[0].Value != "tok" {
		t.Fatalf("expected backend cookies persisted, got %+v", stored.BackendCookies)
	}
}

func TestSession_ReusesExisting(t *testing.T) {
	e := echo.New()
	store := session.NewMemoryStore()
	existing := domain.NewSession("known", time.Now(), time.Hour)
	existing.BackendCookies = []domain.Cookie{{Name: "jwt", Value: "old"}}
	_ = store.Save(context.Background(), existing)

	f := &fakeFactory{backend: &fakeBackend{cookies: existing.BackendCookies}}
	mw := Session(newSessionConfig(store, f))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "authify_session", Value: "known"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = mw(func(c echo.Context) error {
		if SessionFrom(c).ID != "known" {
			t.Fatalf("expected known session, got %s", SessionFrom(c).ID)
		}
		return nil
	})(c)

	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("expected no new cookie for an existing session")
	}
	if len(f.opened) != 1 || f.opened[0][0].Value != "old" {
		t.Fatalf("expected backend opened with stored cookies, got %+v", f.opened)
	}
}

func TestSession_UnknownCookieStartsOver(t *testing.T) {
	e := echo.New()
	f := &fakeFactory{backend: &fakeBackend{}}
	mw := Session(newSessionConfig(session.NewMemoryStore(), f))

	req := httptest.NewRequest(http.MethodPost, "/api/register", nil)
	req.AddCookie(&http.Cookie{Name: "authify_session", Value: "forged"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var id string
	_ = mw(func(c echo.Context) error {
		sess := SessionFrom(c)
		id = sess.ID
		sess.PendingVerification = "ann@example.com"
		return c.NoContent(http.StatusCreated)
	})(c)

	if id == "forged" {
		t.Fatalf("expected a new session id")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != id {
		t.Fatalf("expected a replacement cookie for %s, got %+v", id, cookies)
	}
}

func TestSession_AnonymousRequestStoresNothing(t *testing.T) {
	e := echo.New()
	store := session.NewMemoryStore()
	f := &fakeFactory{backend: &fakeBackend{}}
	mw := Session(newSessionConfig(store, f))

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/password/strength", nil), rec)

	var id string
	err := mw(func(c echo.Context) error {
		id = SessionFrom(c).ID
		return c.JSON(http.StatusOK, map[string]int{"score": 3})
	})(c)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if _, err := store.Get(context.Background(), id); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected nothing stored, got %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("expected no cookie, got %+v", rec.Result().Cookies())
	}
}

func TestSession_DropBackendCookies(t *testing.T) {
	e := echo.New()
	store := session.NewMemoryStore()
	existing := domain.NewSession("known", time.Now(), time.Hour)
	existing.BackendCookies = []domain.Cookie{{Name: "jwt", Value: "tok"}}
	_ = store.Save(context.Background(), existing)

	f := &fakeFactory{backend: &fakeBackend{cookies: existing.BackendCookies}}
	mw := Session(newSessionConfig(store, f))

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(&http.Cookie{Name: "authify_session", Value: "known"})
	c := e.NewContext(req, httptest.NewRecorder())

	_ = mw(func(c echo.Context) error {
		DropBackendCookies(c)
		return nil
	})(c)

	stored, err := store.Get(context.Background(), "known")
	if err != nil {
		t.Fatalf("expected stored session: %v", err)
	}
	if len(stored.BackendCookies) != 0 {
		t.Fatalf("expected cookies dropped, got %+v", stored.BackendCookies)
	}
}

func TestSession_Rotate(t *testing.T) {
	e := echo.New()
	store := session.NewMemoryStore()
	existing := domain.NewSession("known", time.Now(), time.Hour)
	existing.PendingVerification = "ann@example.com"
	_ = store.Save(context.Background(), existing)

	cfg := newSessionConfig(store, &fakeFactory{backend: &fakeBackend{}})
	mw := Session(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.AddCookie(&http.Cookie{Name: "authify_session", Value: "known"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var id string
	_ = mw(func(c echo.Context) error {
		RotateSession(c, cfg)
		id = SessionFrom(c).ID
		return c.NoContent(http.StatusOK)
	})(c)

	if id == "known" {
		t.Fatal("expected a new session id")
	}
	if _, err := store.Get(context.Background(), "known"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected the old id forgotten, got %v", err)
	}
	moved, err := store.Get(context.Background(), id)
	if err != nil || moved.PendingVerification != "ann@example.com" {
		t.Fatalf("expected the session under its new id, got %+v, %v", moved, err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != id {
		t.Fatalf("expected one cookie for %s, got %+v", id, cookies)
	}
}

func TestSession_StoreFailure(t *testing.T) {
	e := echo.New()
	f := &fakeFactory{backend: &fakeBackend{}}
	mw := Session(newSessionConfig(&failingStore{}, f))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "authify_session", Value: "x"})
	c := e.NewContext(req, httptest.NewRecorder())

	err := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})(c)
	if err == nil {
		t.Fatalf("expected error when the store is down")
	}
}
