package handler

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/authify/authify-gateway/internal/api/metrics"
	"github.com/authify/authify-gateway/internal/api/middleware"
	"github.com/authify/authify-gateway/internal/core/domain"
	"github.com/authify/authify-gateway/internal/core/ports"
)

const logoutWarning = "Logout failed on the server. You have been logged out locally."

// Login authenticates against the backend and binds the result to the
// gateway session, which moves to a new ID.
//
// @Summary      Login
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Failure      502   {object}  map[string]any
// @Router       /api/login [post]
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	svc, sess, err := h.sessionService(c)
	if err != nil {
		return err
	}

	res, err := svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(string(domain.KindOf(err))).Inc()
		return err
	}

	sess.State = svc.State()
	token := res.Token
	if token == "" {
		token = jwtCookie(middleware.BackendFrom(c))
	}
	if exp, ok := tokenExpiry(token); ok && exp.After(h.now()) && exp.Before(sess.ExpiresAt) {
		sess.ExpiresAt = exp
	}
	middleware.RotateSession(c, h.deps.Session)

	result := "user"
	if res.User.IsAdmin() {
		result = "admin"
	}
	metrics.LoginsTotal.WithLabelValues(result).Inc()

	return c.JSON(http.StatusOK, loginResponse{
		User:     toUserResponse(&res.User),
		Redirect: string(res.Destination),
	})
}

// Logout ends the backend session. The gateway session is cleared even when
// the backend call fails; the response then carries a warning.
//
// @Summary      Logout
// @Tags         session
// @Produce      json
// @Success      200  {object}  logoutResponse
// @Router       /api/logout [post]
func (h *Handler) Logout(c echo.Context) error {
	svc, sess, err := h.sessionService(c)
	if err != nil {
		return err
	}

	res := svc.Logout(c.Request().Context())
	sess.ClearAuth()
	sess.PendingReset = nil
	middleware.DropBackendCookies(c)
	middleware.RotateSession(c, h.deps.Session)

	resp := logoutResponse{LoggedOut: true, Redirect: string(res.Destination)}
	if res.Err != nil {
		resp.Warning = logoutWarning
	}
	return c.JSON(http.StatusOK, resp)
}

// Session silently restores the session on page load. It never fails: a
// failed profile check just means nobody is logged in.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /api/session [get]
func (h *Handler) Session(c echo.Context) error {
	svc, sess, err := h.sessionService(c)
	if err != nil {
		return err
	}

	sess.State = svc.Restore(c.Request().Context())
	return c.JSON(http.StatusOK, sessionResponse{
		Authenticated: sess.State.LoggedIn(),
		User:          toUserResponse(sess.State.User),
	})
}

// Profile fetches the logged-in user from the backend.
//
// @Summary      Profile
// @Tags         session
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]any
// @Router       /api/profile [get]
func (h *Handler) Profile(c echo.Context) error {
	svc, sess, err := h.sessionService(c)
	if err != nil {
		return err
	}

	user, err := svc.Profile(c.Request().Context())
	sess.State = svc.State()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// jwtCookie returns the backend's "jwt" cookie, which carries the same token
// when the login body does not.
func jwtCookie(b ports.Backend) string {
	if b == nil {
		return ""
	}
	for _, ck := range b.Cookies() {
		if ck.Name == "jwt" {
			return ck.Value
		}
	}
	return ""
}

// tokenExpiry reads the exp claim of the backend's JWT. The signature is not
// checked here; the backend verifies its own tokens.
func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
