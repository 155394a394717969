package domain

import (
	"errors"
	"sort"
	"strings"
)

// Validation failures are caught before any network call.
var (
	ErrValidation    = errors.New("validation failed")
	ErrInvalidAccess = errors.New("invalid access")
)

// Authentication failures reported by the backend.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrUnauthenticated    = errors.New("not logged in")
	ErrForbidden          = errors.New("access forbidden")
)

// Transport and server failures.
var (
	ErrNetwork  = errors.New("network error")
	ErrServer   = errors.New("server error")
	ErrNotFound = errors.New("not found")
)

var (
	ErrResendTooSoon     = errors.New("resend requested too soon")
	ErrUnsupportedAction = errors.New("action not supported")
	ErrSessionNotFound   = errors.New("session not found")
)

// ErrIncompleteOTP is returned when fewer than OTPLength cells are filled.
var ErrIncompleteOTP = NewValidationError("otp", "Please enter all 6 digits")

// ValidationError carries per-field messages for inline display.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ErrorKind groups errors by how the UI surfaces them.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindAuthentication ErrorKind = "authentication"
	KindAuthorization  ErrorKind = "authorization"
	KindNetwork        ErrorKind = "network"
	KindNotFound       ErrorKind = "not_found"
	KindRateLimited    ErrorKind = "rate_limited"
	KindUnsupported    ErrorKind = "unsupported"
	KindServer         ErrorKind = "server"
)

// KindOf classifies err. Validation and authentication errors are shown
// inline; network and server errors are shown as transient notices.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidAccess):
		return KindValidation
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrAccountDisabled), errors.Is(err, ErrUnauthenticated):
		return KindAuthentication
	case errors.Is(err, ErrForbidden):
		return KindAuthorization
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrResendTooSoon):
		return KindRateLimited
	case errors.Is(err, ErrUnsupportedAction):
		return KindUnsupported
	default:
		return KindServer
	}
}
