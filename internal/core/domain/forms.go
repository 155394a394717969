package domain

// RegistrationDraft is the sign-up form. It lives only until submission.
type RegistrationDraft struct {
	Name            string `json:"name"            validate:"required"`
	Email           string `json:"email"           validate:"required,email_syntax"`
	Password        string `json:"password"        validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

// LoginForm is the sign-in form.
type LoginForm struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// EmailForm backs the forgot-password and resend steps.
type EmailForm struct {
	Email string `json:"email" validate:"required,email_syntax"`
}

// NewPasswordForm is the last step of the password reset flow.
type NewPasswordForm struct {
	Password        string `json:"password"        validate:"required,min=8,password_policy"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}
