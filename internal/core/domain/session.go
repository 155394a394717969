package domain

import "time"

// Destination is the view a caller should show after a session transition.
type Destination string

const (
	DestinationAdmin Destination = "/admin"
	DestinationUser  Destination = "/user"
	DestinationLogin Destination = "/login"
)

// DestinationFor picks the post-login view from the server-provided roles.
// This is the only decision the client derives from roles.
func DestinationFor(u User) Destination {
	if u.IsAdmin() {
		return DestinationAdmin
	}
	return DestinationUser
}

// SessionState is the client's view of "who is logged in".
type SessionState struct {
	User *User `json:"user,omitempty"`
}

// LoggedIn reports whether the state carries an authenticated user.
func (s SessionState) LoggedIn() bool {
	return s.User != nil
}

// Cookie is a backend cookie held on behalf of a browser or CLI session.
type Cookie struct {
	Name    string    `json:"name"    bson:"name"`
	Value   string    `json:"value"   bson:"value"`
	Path    string    `json:"path"    bson:"path,omitempty"`
	Domain  string    `json:"domain"  bson:"domain,omitempty"`
	Expires time.Time `json:"expires" bson:"expires,omitempty"`
}

// PendingReset carries the password-reset state handed from one step to the
// next: the email after the OTP request, then the verified OTP.
type PendingReset struct {
	Email string `json:"email" bson:"email"`
	OTP   string `json:"otp"   bson:"otp,omitempty"`
}

// Session is the gateway-side record behind the browser's session cookie.
type Session struct {
	ID                  string        `json:"id"`
	State               SessionState  `json:"state"`
	BackendCookies      []Cookie      `json:"backend_cookies,omitempty"`
	PendingVerification string        `json:"pending_verification,omitempty"`
	PendingReset        *PendingReset `json:"pending_reset,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	ExpiresAt           time.Time     `json:"expires_at"`
}

// NewSession returns an empty, logged-out session valid for ttl.
func NewSession(id string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Empty reports whether the session holds nothing worth keeping: no user,
// no backend cookies and no flow in progress.
func (s *Session) Empty() bool {
	return !s.State.LoggedIn() &&
		len(s.BackendCookies) == 0 &&
		s.PendingVerification == "" &&
		s.PendingReset == nil
}

// ClearAuth drops the user and every backend credential.
func (s *Session) ClearAuth() {
	s.State = SessionState{}
	s.BackendCookies = nil
}
