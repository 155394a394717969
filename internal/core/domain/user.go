package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

// DefaultName is shown when the server has no name on record for the user.
const DefaultName = "Unknown"

// RoleSet holds the roles the server assigned to a user. The client never
// adds or removes roles on its own.
type RoleSet map[string]struct{}

// ParseRoles splits the server's comma-space delimited role string
// ("ROLE_USER, ROLE_ADMIN") into a set. Empty input yields an empty set.
func ParseRoles(s string) RoleSet {
	set := RoleSet{}
	for _, part := range strings.Split(s, ",") {
		if role := strings.TrimSpace(part); role != "" {
			set[role] = struct{}{}
		}
	}
	return set
}

// NewRoleSet builds a RoleSet from individual role names.
func NewRoleSet(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		if r = strings.TrimSpace(r); r != "" {
			set[r] = struct{}{}
		}
	}
	return set
}

// Has reports whether role is in the set.
func (r RoleSet) Has(role string) bool {
	_, ok := r[role]
	return ok
}

// List returns the roles in lexical order.
func (r RoleSet) List() []string {
	out := make([]string, 0, len(r))
	for role := range r {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}

// String renders the set in the server's wire form.
func (r RoleSet) String() string {
	return strings.Join(r.List(), ", ")
}

func (r RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.List())
}

func (r *RoleSet) UnmarshalJSON(b []byte) error {
	var roles []string
	if err := json.Unmarshal(b, &roles); err != nil {
		return err
	}
	*r = NewRoleSet(roles...)
	return nil
}

// User is the authenticated identity as reported by the server.
type User struct {
	Email string  `json:"email"`
	Name  string  `json:"name"`
	Roles RoleSet `json:"roles"`
}

// NewUser builds a User from the login/profile response fields.
func NewUser(email, name, roles string) User {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	return User{
		Email: email,
		Name:  name,
		Roles: ParseRoles(roles),
	}
}

// IsAdmin reports whether the server granted ROLE_ADMIN.
func (u User) IsAdmin() bool {
	return u.Roles.Has(RoleAdmin)
}

// Initials returns the upper-cased first letter of each name part, or "U"
// when no usable name is known.
func (u User) Initials() string {
	if u.Name == "" || u.Name == DefaultName {
		return "U"
	}
	var b strings.Builder
	for _, part := range strings.Fields(u.Name) {
		b.WriteString(strings.ToUpper(string([]rune(part)[0])))
	}
	return b.String()
}
