package handler

import (
	"github.com/authify/authify-gateway/internal/core/service"
)

// echoValidator lets Echo call c.Validate(req) with the same rules and
// messages the services use.
type echoValidator struct {
	v *service.FormValidator
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator(v *service.FormValidator) *echoValidator {
	if v == nil {
		v = service.NewFormValidator()
	}
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. Failures are
// *domain.ValidationError so the error handler can list the fields.
func (ev *echoValidator) Validate(i any) error {
	return ev.v.Validate(i)
}
