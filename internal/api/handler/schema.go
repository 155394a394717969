package handler

import "github.com/authify/authify-gateway/internal/core/domain"

// ── Requests ──────────────────────────────────────────────────────────────────

type loginRequest struct {
	Email    string `json:"email"    example:"ann@example.com"`
	Password string `json:"password" example:"Secret123"`
}

type registerRequest struct {
	Name            string `json:"name"            example:"Ann Lee"`
	Email           string `json:"email"           example:"ann@example.com"`
	Password        string `json:"password"        example:"Secret123"`
	ConfirmPassword string `json:"confirmPassword" example:"Secret123"`
}

// otpRequest accepts the code either joined ("123456") or as the six cells
// of the entry widget. Email falls back to the one the flow remembered.
type otpRequest struct {
	Email  string   `json:"email,omitempty"  example:"ann@example.com"`
	OTP    string   `json:"otp,omitempty"    example:"123456"`
	Digits []string `json:"digits,omitempty" validate:"omitempty,len=6"`
}

func (r otpRequest) entry() (domain.OTPEntry, error) {
	if len(r.Digits) > 0 {
		return domain.EntryFromCells(r.Digits)
	}
	return domain.EntryFromCode(r.OTP), nil
}

type emailRequest struct {
	Email string `json:"email" example:"ann@example.com"`
}

type newPasswordRequest struct {
	Password        string `json:"password"        example:"NewSecret1"`
	ConfirmPassword string `json:"confirmPassword" example:"NewSecret1"`
}

type strengthRequest struct {
	Password string `json:"password" example:"NewSecret1"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

type userResponse struct {
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Roles    []string `json:"roles"`
	IsAdmin  bool     `json:"isAdmin"`
	Initials string   `json:"initials"`
}

func toUserResponse(u *domain.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		Email:    u.Email,
		Name:     u.Name,
		Roles:    u.Roles.List(),
		IsAdmin:  u.IsAdmin(),
		Initials: u.Initials(),
	}
}

type loginResponse struct {
	User     *userResponse `json:"user"`
	Redirect string        `json:"redirect" example:"/admin"`
}

type logoutResponse struct {
	LoggedOut bool   `json:"loggedOut"`
	Redirect  string `json:"redirect"          example:"/login"`
	Warning   string `json:"warning,omitempty" example:"Logout failed on the server. You have been logged out locally."`
}

type sessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *userResponse `json:"user,omitempty"`
}

// flowResponse acknowledges a form step and names the view to show next.
type flowResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

type userPageResponse struct {
	Content    []domain.AdminUser `json:"content"`
	Page       int                `json:"page"`
	Size       int                `json:"size"`
	TotalPages int                `json:"totalPages"`
	HasPrev    bool               `json:"hasPrev"`
	HasNext    bool               `json:"hasNext"`
	Truncated  bool               `json:"truncated,omitempty"`
}

func toUserPageResponse(p *domain.UserPage) userPageResponse {
	return userPageResponse{
		Content:    p.Content,
		Page:       p.Page,
		Size:       p.Size,
		TotalPages: p.TotalPages,
		HasPrev:    p.Page > 1,
		HasNext:    p.Page < p.TotalPages,
		Truncated:  p.Truncated,
	}
}
