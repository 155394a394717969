package domain

import "strings"

// AdminUser is a row of the admin user-management table.
type AdminUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Verified  bool   `json:"verified"`
	IsAdmin   bool   `json:"isAdmin"`
	CreatedAt string `json:"createdAt"`
}

// Matches reports whether the lower-cased query is a substring of the
// user's name or email.
func (u AdminUser) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(u.Name), q) ||
		strings.Contains(strings.ToLower(u.Email), q)
}

// UserPage is one page of users. Page is 1-based; the server is the sole
// source of TotalPages.
type UserPage struct {
	Content    []AdminUser `json:"content"`
	TotalPages int         `json:"totalPages"`
	Page       int         `json:"page"`
	Size       int         `json:"size"`
	// Truncated is set when a search stopped before the last server page.
	Truncated  bool        `json:"truncated,omitempty"`
}

// AdminAction is a row action offered by the user-management table.
type AdminAction string

const (
	ActionPromote    AdminAction = "promote"
	ActionEdit       AdminAction = "edit"
	ActionDelete     AdminAction = "delete"
	ActionDeactivate AdminAction = "deactivate"
)

// ParseAdminAction maps a raw action name to a known AdminAction.
func ParseAdminAction(s string) (AdminAction, bool) {
	switch a := AdminAction(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionPromote, ActionEdit, ActionDelete, ActionDeactivate:
		return a, true
	}
	return "", false
}

// Supported reports whether the backend defines a contract for the action.
func (a AdminAction) Supported() bool {
	return a == ActionPromote
}
