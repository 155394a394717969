package authify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/authify/authify-gateway/internal/core/domain"
)

const networkMessage = "Network error. Please check your connection."

// APIError is a failed backend call. Message is the server's own text when it
// sent one and is safe to show next to the form.
type APIError struct {
	Call    string
	Status  int
	Message string
	Kind    error
	Err     error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %v", e.Call, e.Err)
	}
	return fmt.Sprintf("%s: status %d", e.Call, e.Status)
}

// Is matches the domain sentinel the failure was classified as.
func (e *APIError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classify maps a backend status to the client's error taxonomy. Login is
// special-cased: 400 and 401 both mean bad credentials there.
func classify(call string, status int) error {
	if call == callLogin {
		switch status {
		case http.StatusBadRequest, http.StatusUnauthorized:
			return domain.ErrInvalidCredentials
		case http.StatusForbidden:
			return domain.ErrAccountDisabled
		}
	}

	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return domain.ErrValidation
	case status == http.StatusUnauthorized:
		return domain.ErrUnauthenticated
	case status == http.StatusForbidden:
		return domain.ErrForbidden
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	default:
		return domain.ErrServer
	}
}

// errorMessage pulls a displayable message out of an error body. The backend
// answers with either JSON ({"message": ...}) or plain text.
func errorMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "{") {
		var env struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(body, &env); err == nil {
			if env.Message != "" {
				return env.Message
			}
			return env.Error
		}
		return ""
	}

	if strings.HasPrefix(trimmed, "<") || len(trimmed) > 300 {
		return ""
	}
	return trimmed
}
