package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/authify/authify-gateway/internal/core/domain"
	"github.com/authify/authify-gateway/internal/core/ports"
	"github.com/authify/authify-gateway/internal/core/service"
	"github.com/authify/authify-gateway/internal/infrastructure/authify"
	"github.com/authify/authify-gateway/internal/infrastructure/config"
	"github.com/authify/authify-gateway/internal/infrastructure/session"
	"github.com/authify/authify-gateway/pkg/logger"
)

const (
	// The session file holds a single record under this id.
	cliSessionID  = "cli"
	cliSessionTTL = 30 * 24 * time.Hour
)

// cliClient is one CLI invocation's view of the stored session and the
// backend client primed with its cookies.
type cliClient struct {
	store   *session.FileStore
	sess    *domain.Session
	backend ports.Backend
	admin   service.AdminOptions
	log     zerolog.Logger
}

func openClient(cmd *cobra.Command, opts *rootOptions) (*cliClient, error) {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if opts.backendURL != "" {
		cfg.Backend.URL = opts.backendURL
	}

	log := logger.New(logger.Options{
		Level:   opts.logLevel,
		Pretty:  true,
		Output:  cmd.ErrOrStderr(),
		Service: "authify-cli",
	})

	path := opts.sessionFile
	if path == "" {
		if path, err = session.DefaultFilePath(); err != nil {
			return nil, err
		}
	}
	store := session.NewFileStore(path)

	sess, err := store.Get(ctx, cliSessionID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		sess = domain.NewSession(cliSessionID, time.Now(), cliSessionTTL)
	case err != nil:
		return nil, fmt.Errorf("load session: %w", err)
	}

	factory, err := authify.NewFactory(authify.Config{
		BaseURL:   cfg.Backend.URL,
		UserPath:  cfg.Backend.UserPath,
		AdminPath: cfg.Backend.AdminPath,
		Timeout:   cfg.Backend.Timeout,
	}, log, nil)
	if err != nil {
		return nil, err
	}
	backend, err := factory.Open(sess.BackendCookies)
	if err != nil {
		return nil, err
	}

	return &cliClient{
		store:   store,
		sess:    sess,
		backend: backend,
		admin: service.AdminOptions{
			DefaultPageSize: cfg.Flows.PageSize,
			SearchMaxPages:  cfg.Flows.SearchMaxPages,
			SearchWorkers:   cfg.Flows.SearchWorkers,
		},
		log: log,
	}, nil
}

// save writes the session back with whatever cookies the backend set.
func (c *cliClient) save(ctx context.Context) error {
	c.sess.BackendCookies = c.backend.Cookies()
	if err := c.store.Save(ctx, c.sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// forget removes the stored session altogether.
func (c *cliClient) forget(ctx context.Context) error {
	if err := c.store.Delete(ctx, cliSessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (c *cliClient) sessionService() *service.SessionService {
	return service.NewSessionService(c.backend, c.sess.State, nil, c.log)
}

// The CLI passes no resend limiter: the cooldown is a per-browser courtesy
// the gateway enforces, and the backend throttles on its side.
func (c *cliClient) registrationService() *service.RegistrationService {
	return service.NewRegistrationService(c.backend, nil, nil, c.log)
}

func (c *cliClient) resetService() *service.ResetService {
	return service.NewResetService(c.backend, nil, nil, c.log)
}

// adminService refuses to run unless the stored session belongs to an admin.
func (c *cliClient) adminService() (*service.AdminService, error) {
	if !c.sess.State.LoggedIn() {
		return nil, domain.ErrUnauthenticated
	}
	if !c.sess.State.User.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return service.NewAdminService(c.backend, c.admin, c.log), nil
}

// readValue returns flagValue, or prompts on stderr and reads one line from
// stdin when it is empty.
func readValue(cmd *cobra.Command, flagValue, prompt string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt+": ")
	line, err := readLine(cmd.InOrStdin())
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(prompt), err)
	}
	return strings.TrimRight(line, "\r"), nil
}

// readLine reads up to the next newline one byte at a time, so consecutive
// prompts on the same stdin don't lose buffered input.
func readLine(r io.Reader) (string, error) {
	var b strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return b.String(), nil
			}
			b.WriteByte(buf[0])
		}
		if err != nil {
			return b.String(), err
		}
	}
}
