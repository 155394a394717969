package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/authify/authify-gateway/internal/api/metrics"
	"github.com/authify/authify-gateway/internal/core/domain"
	"github.com/authify/authify-gateway/internal/core/ports"
)

const (
	ctxSession     = "session"
	ctxBackend     = "backend"
	ctxDropBackend = "drop_backend_cookies"
	ctxRotated     = "session_rotated"
)

// SessionConfig wires the Session middleware.
type SessionConfig struct {
	Store      ports.SessionStore
	Backends   ports.BackendFactory
	CookieName string
	TTL        time.Duration
	Secure     bool
	Log        zerolog.Logger
	Now        func() time.Time
}

// Session loads the browser's gateway session (creating one when the cookie
// is missing or stale), opens a backend client primed with the session's
// backend cookies, and saves both back after the handler ran. A new session
// is only stored, and its cookie only issued, once it holds something.
func Session(cfg SessionConfig) echo.MiddlewareFunc {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			sess, fresh, err := load(c, cfg)
			if err != nil {
				return err
			}

			backend, err := cfg.Backends.Open(sess.BackendCookies)
			if err != nil {
				return fmt.Errorf("open backend: %w", err)
			}

			c.Set(ctxSession, sess)
			c.Set(ctxBackend, backend)

			if fresh {
				// Handlers settle the session before writing the body.
				c.Response().Before(func() {
					sess.BackendCookies = backendCookies(c, backend)
					if !rotated(c) && !sess.Empty() {
						setCookie(c, cfg, sess.ID, sess.ExpiresAt)
					}
				})
			}

			herr := next(c)

			sess.BackendCookies = backendCookies(c, backend)
			if fresh && sess.Empty() {
				return herr
			}
			if err := cfg.Store.Save(ctx, sess); err != nil {
				metrics.SessionStoreOpsTotal.WithLabelValues("save", "error").Inc()
				cfg.Log.Error().Err(err).Str("session_id", sess.ID).Msg("session save failed")
				if herr == nil {
					return fmt.Errorf("save session: %w", err)
				}
			} else {
				metrics.SessionStoreOpsTotal.WithLabelValues("save", "ok").Inc()
			}
			return herr
		}
	}
}

// backendCookies is what the session should keep from the backend client.
func backendCookies(c echo.Context, backend ports.Backend) []domain.Cookie {
	if drop, _ := c.Get(ctxDropBackend).(bool); drop {
		return nil
	}
	return backend.Cookies()
}

func rotated(c echo.Context) bool {
	r, _ := c.Get(ctxRotated).(bool)
	return r
}

func load(c echo.Context, cfg SessionConfig) (*domain.Session, bool, error) {
	now := cfg.Now()

	if ck, err := c.Cookie(cfg.CookieName); err == nil && ck.Value != "" {
		sess, err := cfg.Store.Get(c.Request().Context(), ck.Value)
		switch {
		case err == nil && !sess.Expired(now):
			metrics.SessionStoreOpsTotal.WithLabelValues("get", "ok").Inc()
			return sess, false, nil
		case err == nil, errors.Is(err, domain.ErrSessionNotFound):
			metrics.SessionStoreOpsTotal.WithLabelValues("get", "miss").Inc()
		default:
			metrics.SessionStoreOpsTotal.WithLabelValues("get", "error").Inc()
			return nil, false, fmt.Errorf("load session: %w", err)
		}
	}

	return domain.NewSession(uuid.NewString(), now, cfg.TTL), true, nil
}

func setCookie(c echo.Context, cfg SessionConfig, value string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RotateSession moves the session to a new ID, forgets the old one and
// re-issues the cookie. Call it whenever the session changes hands, on login
// and logout, so an ID handed out before cannot ride along.
func RotateSession(c echo.Context, cfg SessionConfig) {
	sess := SessionFrom(c)
	if sess == nil {
		return
	}

	old := sess.ID
	sess.ID = uuid.NewString()
	c.Set(ctxRotated, true)

	if cfg.Store != nil {
		if err := cfg.Store.Delete(c.Request().Context(), old); err != nil {
			metrics.SessionStoreOpsTotal.WithLabelValues("delete", "error").Inc()
			cfg.Log.Warn().Err(err).Str("session_id", old).Msg("old session not deleted")
		} else {
			metrics.SessionStoreOpsTotal.WithLabelValues("delete", "ok").Inc()
		}
	}
	setCookie(c, cfg, sess.ID, sess.ExpiresAt)
}

// DropBackendCookies makes the middleware forget the backend cookies instead
// of saving them, e.g. on logout.
func DropBackendCookies(c echo.Context) {
	c.Set(ctxDropBackend, true)
}

// SessionFrom returns the session the Session middleware attached.
func SessionFrom(c echo.Context) *domain.Session {
	sess, _ := c.Get(ctxSession).(*domain.Session)
	return sess
}

// BackendFrom returns the backend client the Session middleware attached.
func BackendFrom(c echo.Context) ports.Backend {
	b, _ := c.Get(ctxBackend).(ports.Backend)
	return b
}

// WithSession attaches a session and backend to c. Handler tests use it in
// place of the middleware.
func WithSession(c echo.Context, sess *domain.Session, backend ports.Backend) {
	c.Set(ctxSession, sess)
	c.Set(ctxBackend, backend)
}
