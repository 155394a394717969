package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/authify/authify-gateway/internal/core/domain"
)

func contextWithUser(roles string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	sess := domain.NewSession("s", time.Now(), time.Hour)
	if roles != "" {
		u := domain.NewUser("ann@example.com", "Ann", roles)
		sess.State = domain.SessionState{User: &u}
	}
	WithSession(c, sess, nil)
	return c, rec
}

func TestRBAC_Allows(t *testing.T) {
	c, rec := contextWithUser("ROLE_USER, ROLE_ADMIN")

	called := false
	handler := RBAC(domain.RoleAdmin)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRBAC_Forbids(t *testing.T) {
	c, _ := contextWithUser("ROLE_USER")

	handler := RBAC(domain.RoleAdmin)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRBAC_RequiresLogin(t *testing.T) {
	c, _ := contextWithUser("")

	handler := RBAC(domain.RoleAdmin)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestRequireLogin(t *testing.T) {
	c, _ := contextWithUser("")
	if err := RequireLogin()(func(echo.Context) error { return nil })(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	c, _ = contextWithUser("ROLE_USER")
	if err := RequireLogin()(func(echo.Context) error { return nil })(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
