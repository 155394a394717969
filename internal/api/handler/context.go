package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/authify/authify-gateway/internal/api/middleware"
	"github.com/authify/authify-gateway/internal/core/domain"
	"github.com/authify/authify-gateway/internal/core/ports"
	"github.com/authify/authify-gateway/internal/core/service"
)

// Deps is what every gateway handler shares. Services are built per request
// around the backend client the Session middleware opened.
type Deps struct {
	Validator *service.FormValidator
	Limiter   ports.ResendLimiter
	Admin     service.AdminOptions
	Session   middleware.SessionConfig
	Log       zerolog.Logger
}

// Handler serves the /api routes.
type Handler struct {
	deps Deps
}

func NewHandler(deps Deps) *Handler {
	if deps.Validator == nil {
		deps.Validator = service.NewFormValidator()
	}
	return &Handler{deps: deps}
}

// ctxSession returns the request's session and backend, failing fast when
// the Session middleware did not run.
func ctxSession(c echo.Context) (*domain.Session, ports.Backend, error) {
	sess := middleware.SessionFrom(c)
	backend := middleware.BackendFrom(c)
	if sess == nil || backend == nil {
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
	}
	return sess, backend, nil
}

func (h *Handler) sessionService(c echo.Context) (*service.SessionService, *domain.Session, error) {
	sess, backend, err := ctxSession(c)
	if err != nil {
		return nil, nil, err
	}
	return service.NewSessionService(backend, sess.State, h.deps.Validator, h.deps.Log), sess, nil
}

func (h *Handler) registrationService(c echo.Context) (*service.RegistrationService, *domain.Session, error) {
	sess, backend, err := ctxSession(c)
	if err != nil {
		return nil, nil, err
	}
	return service.NewRegistrationService(backend, h.deps.Limiter, h.deps.Validator, h.deps.Log), sess, nil
}

func (h *Handler) resetService(c echo.Context) (*service.ResetService, *domain.Session, error) {
	sess, backend, err := ctxSession(c)
	if err != nil {
		return nil, nil, err
	}
	return service.NewResetService(backend, h.deps.Limiter, h.deps.Validator, h.deps.Log), sess, nil
}

func (h *Handler) adminService(c echo.Context) (*service.AdminService, error) {
	_, backend, err := ctxSession(c)
	if err != nil {
		return nil, err
	}
	return service.NewAdminService(backend, h.deps.Admin, h.deps.Log), nil
}

func (h *Handler) now() time.Time {
	if h.deps.Session.Now != nil {
		return h.deps.Session.Now()
	}
	return time.Now()
}

// queryInt reads an optional integer query parameter.
func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, name+" must be a number")
	}
	return n, nil
}

// bind decodes the body and runs the request's own validate tags. Form rules
// proper are checked by the services.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil && !errors.Is(err, echo.ErrValidatorNotRegistered) {
		return err
	}
	return nil
}
