package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/authify/authify-gateway/internal/core/domain"
)

// emailSyntax is deliberately loose: something@something.something with no
// whitespace. The backend owns the real check.
var emailSyntax = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// messages maps "<field>.<tag>" to the text shown under the field.
var messages = map[string]string{
	"name.required":            "Name is required.",
	"email.required":           "Please enter your email address",
	"email.email_syntax":       "Invalid email format.",
	"password.required":        "Please fill in all fields",
	"password.min":             "Password must be at least 8 characters long",
	"password.password_policy": "Password must contain uppercase, lowercase, and numbers",
	"confirmPassword.required": "Please fill in all fields",
	"confirmPassword.eqfield":  "Passwords don't match.",
	"digits.len":               "Please enter all 6 digits",
}

// FormValidator checks form drafts before anything goes over the network.
type FormValidator struct {
	v *validator.Validate
}

// NewFormValidator registers the custom rules and json field naming.
func NewFormValidator() *FormValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("email_syntax", func(fl validator.FieldLevel) bool {
		return emailSyntax.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password_policy", func(fl validator.FieldLevel) bool {
		t := domain.TraitsOf(fl.Field().String())
		return t.Upper && t.Lower && t.Digit
	})
	return &FormValidator{v: v}
}

// Validate returns a *domain.ValidationError listing every failing field, or
// nil when the form is acceptable.
func (fv *FormValidator) Validate(form any) error {
	err := fv.v.Struct(form)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		if _, taken := fields[fe.Field()]; !taken {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}
	return &domain.ValidationError{Fields: fields}
}

// ValidEmail reports whether email passes the client-side syntax check.
func ValidEmail(email string) bool {
	return emailSyntax.MatchString(email)
}

func fieldMessage(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "email", "email_syntax":
		return field + " must be a valid email"
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
