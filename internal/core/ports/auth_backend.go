package ports

import (
	"context"

	"github.com/authify/authify-gateway/internal/core/domain"
)

// RegisterInput is the registration draft as sent to the backend.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginOutput is the identity returned by a successful login or profile call.
type LoginOutput struct {
	Token string
	Email string
	Roles string
	Name  string
}

// AuthBackend is the user-facing half of the Authify REST API. Every call
// travels with the session's credentials.
type AuthBackend interface {
	Register(ctx context.Context, in RegisterInput) error
	VerifyAccount(ctx context.Context, email, otp string) error
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*LoginOutput, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*LoginOutput, error)
	SendResetOTP(ctx context.Context, email string) error
	VerifyResetOTP(ctx context.Context, email, otp string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string) error
}

// AdminBackend is the admin-facing half of the Authify REST API.
type AdminBackend interface {
	// ListUsers takes a zero-indexed page, exactly as the server expects it.
	ListUsers(ctx context.Context, page, size int) (*domain.UserPage, error)
	PromoteToAdmin(ctx context.Context, userID string) error
	FindByEmail(ctx context.Context, email string) (*domain.AdminUser, error)
	FindByID(ctx context.Context, id string) (*domain.AdminUser, error)
}

// Backend bundles both halves over one credential set.
type Backend interface {
	AuthBackend
	AdminBackend
	// Cookies returns the backend credentials held after the last call.
	Cookies() []domain.Cookie
}

// BackendFactory opens a Backend primed with previously stored credentials.
type BackendFactory interface {
	Open(cookies []domain.Cookie) (Backend, error)
	Ping(ctx context.Context) error
}
