package domain

import (
	"testing"
	"time"
)

func TestSession_Empty(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	u := NewUser("ann@example.com", "Ann", RoleUser)

	cases := []struct {
		name  string
		edit  func(*Session)
		empty bool
	}{
		{"new", func(*Session) {}, true},
		{"logged in", func(s *Session) { s.State = SessionState{User: &u} }, false},
		{"backend cookies", func(s *Session) { s.BackendCookies = []Cookie{{Name: "jwt", Value: "t"}} }, false},
		{"pending verification", func(s *Session) { s.PendingVerification = "ann@example.com" }, false},
		{"pending reset", func(s *Session) { s.PendingReset = &PendingReset{Email: "ann@example.com"} }, false},
		{"logged out again", func(s *Session) {
			s.State = SessionState{User: &u}
			s.ClearAuth()
		}, true},
	}
	for _, tc := range cases {
		s := NewSession("s1", now, time.Hour)
		tc.edit(s)
		if got := s.Empty(); got != tc.empty {
			t.Fatalf("%s: expected Empty()=%v, got %v", tc.name, tc.empty, got)
		}
	}
}
