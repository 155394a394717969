package authify

import (
	"strings"

	"github.com/authify/authify-gateway/internal/core/domain"
)

// Call names double as metric labels.
const (
	callRegister           = "register"
	callVerifyAccount      = "verify_account"
	callResendVerification = "resend_verification"
	callLogin              = "login"
	callLogout             = "logout"
	callProfile            = "profile"
	callSendResetOTP       = "send_reset_otp"
	callVerifyResetOTP     = "verify_reset_otp"
	callResetPassword      = "reset_password"
	callListUsers          = "list_users"
	callPromote            = "promote_to_admin"
	callFindByEmail        = "find_by_email"
	callFindByID           = "find_by_id"
)

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type otpRequest struct {
	OTP string `json:"otp"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse is shared by /login and /profile; token is empty on profile.
type authResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Roles string `json:"roles"`
	Name  string `json:"name"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// userResponse accepts both the table shape (verified/isAdmin/createdAt) and
// the backend DTO shape (emailVerified/roles/createdOn).
type userResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Verified      bool     `json:"verified"`
	EmailVerified bool     `json:"emailVerified"`
	IsAdmin       bool     `json:"isAdmin"`
	Roles         []string `json:"roles"`
	CreatedAt     string   `json:"createdAt"`
	CreatedOn     string   `json:"createdOn"`
}

type pageResponse struct {
	Content    []userResponse `json:"content"`
	TotalPages int            `json:"totalPages"`
}

func (u userResponse) toDomain() domain.AdminUser {
	out := domain.AdminUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Verified:  u.Verified || u.EmailVerified,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
	if out.CreatedAt == "" {
		out.CreatedAt = u.CreatedOn
	}
	for _, r := range u.Roles {
		if r = strings.ToUpper(strings.TrimSpace(r)); r == "ADMIN" || r == domain.RoleAdmin {
			out.IsAdmin = true
		}
	}
	return out
}
