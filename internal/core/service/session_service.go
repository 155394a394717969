package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/authify/authify-gateway/internal/core/domain"
	"github.com/authify/authify-gateway/internal/core/ports"
)

// LoginResult tells the caller who logged in and which view to show next.
type LoginResult struct {
	User        domain.User
	Destination domain.Destination
	Token       string
}

// LogoutResult always leaves the session logged out. Err carries the server
// failure, if any, so the caller can show a failure notice.
type LogoutResult struct {
	Destination domain.Destination
	Err         error
}

// SessionService is the "who is logged in" state for one browser or CLI
// session. Callers build one per request from the stored state; it never
// navigates on its own.
type SessionService struct {
	backend   ports.AuthBackend
	validator *FormValidator
	state     domain.SessionState
	log       zerolog.Logger
}

func NewSessionService(backend ports.AuthBackend, state domain.SessionState, validator *FormValidator, log zerolog.Logger) *SessionService {
	if validator == nil {
		validator = NewFormValidator()
	}
	return &SessionService{backend: backend, validator: validator, state: state, log: log}
}

// State returns the current session state.
func (s *SessionService) State() domain.SessionState {
	return s.state
}

// Login sends the credentials and, on success, replaces the state with the
// user the server reported. On failure the state is left untouched.
func (s *SessionService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if err := s.validator.Validate(domain.LoginForm{Email: email, Password: password}); err != nil {
		return nil, err
	}

	out, err := s.backend.Login(ctx, email, password)
	if err != nil {
		s.log.Info().Err(err).Str("email", email).Str("kind", string(domain.KindOf(err))).Msg("login failed")
		return nil, fmt.Errorf("login: %w", err)
	}

	user := domain.NewUser(out.Email, out.Name, out.Roles)
	s.state = domain.SessionState{User: &user}

	s.log.Info().Str("email", user.Email).Str("roles", user.Roles.String()).Msg("login succeeded")
	return &LoginResult{
		User:        user,
		Destination: domain.DestinationFor(user),
		Token:       out.Token,
	}, nil
}

// Logout asks the server to end its session and clears local state whether
// or not that worked.
func (s *SessionService) Logout(ctx context.Context) LogoutResult {
	err := s.backend.Logout(ctx)
	s.state = domain.SessionState{}

	if err != nil {
		s.log.Warn().Err(err).Msg("logout request failed, local session cleared anyway")
		return LogoutResult{Destination: domain.DestinationLogin, Err: fmt.Errorf("logout: %w", err)}
	}
	return LogoutResult{Destination: domain.DestinationLogin}
}

// Restore recovers an existing server session on initial load. A failed
// profile check is not an error: it just means nobody is logged in.
func (s *SessionService) Restore(ctx context.Context) domain.SessionState {
	if s.state.LoggedIn() {
		return s.state
	}

	out, err := s.backend.Profile(ctx)
	if err != nil {
		s.log.Debug().Err(err).Msg("silent profile check found no session")
		s.state = domain.SessionState{}
		return s.state
	}

	user := domain.NewUser(out.Email, out.Name, out.Roles)
	s.state = domain.SessionState{User: &user}
	return s.state
}

// Profile fetches the current user for the profile view. An unauthenticated
// answer clears the state.
func (s *SessionService) Profile(ctx context.Context) (*domain.User, error) {
	out, err := s.backend.Profile(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			s.state = domain.SessionState{}
		}
		return nil, fmt.Errorf("profile: %w", err)
	}

	user := domain.NewUser(out.Email, out.Name, out.Roles)
	s.state = domain.SessionState{User: &user}
	return &user, nil
}
