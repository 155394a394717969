package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/authify/authify-gateway/internal/core/domain"
	"github.com/authify/authify-gateway/internal/core/service"
	"github.com/authify/authify-gateway/internal/infrastructure/authify"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error  string            `json:"error"`
	Kind   domain.ErrorKind  `json:"kind"`
	Fields map[string]string `json:"fields,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to a status code and error kind.
//   - Prefers the backend's own message, which the UI shows inline.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)

		var re *service.ResendError
		if errors.As(err, &re) {
			c.Response().Header().Set("Retry-After", strconv.Itoa(re.RetryAfterSeconds))
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		kind := domain.KindServer
		switch he.Code {
		case http.StatusBadRequest:
			kind = domain.KindValidation
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			kind = domain.KindNotFound
		}
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Kind: kind}
	}

	kind := domain.KindOf(err)
	resp := errorResponse{Error: displayMessage(err), Kind: kind}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		resp.Fields = ve.Fields
	}

	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidAccess):
		return http.StatusBadRequest, resp
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, resp
	case errors.Is(err, domain.ErrAccountDisabled), errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, resp
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, resp
	case errors.Is(err, domain.ErrResendTooSoon):
		return http.StatusTooManyRequests, resp
	case errors.Is(err, domain.ErrUnsupportedAction):
		return http.StatusNotImplemented, resp
	case errors.Is(err, domain.ErrNetwork):
		log.Warn().Err(err).Str("path", c.Path()).Msg("backend unreachable")
		return http.StatusBadGateway, resp
	}

	// Backend answered with a failure we have no better name for.
	var apiErr *authify.APIError
	if errors.As(err, &apiErr) {
		log.Error().Err(err).Str("call", apiErr.Call).Int("status", apiErr.Status).Msg("backend error")
		return http.StatusBadGateway, resp
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Kind: domain.KindServer}
}

// displayMessage picks the text shown to the user: the backend's message when
// it sent one, otherwise a fixed message per error class.
func displayMessage(err error) string {
	var apiErr *authify.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var re *service.ResendError
	if errors.As(err, &re) {
		return re.Error()
	}

	switch {
	case errors.Is(err, domain.ErrInvalidAccess):
		return "Invalid access"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, domain.ErrAccountDisabled):
		return "Your account is disabled. Please verify your email."
	case errors.Is(err, domain.ErrUnauthenticated):
		return "Please log in to continue"
	case errors.Is(err, domain.ErrForbidden):
		return "access forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not found"
	case errors.Is(err, domain.ErrUnsupportedAction):
		return "This action is not supported yet"
	case errors.Is(err, domain.ErrNetwork):
		return "Network error. Please check your connection."
	case errors.Is(err, domain.ErrValidation):
		return "Invalid request"
	default:
		return "Something went wrong. Please try again."
	}
}
