package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{NewValidationError("email", "Invalid email format."), KindValidation},
		{ErrInvalidAccess, KindValidation},
		{ErrInvalidCredentials, KindAuthentication},
		{ErrAccountDisabled, KindAuthentication},
		{ErrForbidden, KindAuthorization},
		{fmt.Errorf("login: %w", ErrNetwork), KindNetwork},
		{ErrResendTooSoon, KindRateLimited},
		{ErrUnsupportedAction, KindUnsupported},
		{errors.New("boom"), KindServer},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("%v: expected %s, got %s", tc.err, tc.want, got)
		}
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"email":           "Invalid email format.",
		"confirmPassword": "Passwords don't match.",
	}}
	if got := err.Error(); got != "Passwords don't match.; Invalid email format." {
		t.Fatalf("unexpected message: %q", got)
	}
}
