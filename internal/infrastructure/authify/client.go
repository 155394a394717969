// Package authify is the HTTP client for the Authify REST backend.
//
// A Client holds two preconfigured request bases, the user API (/user) and
// the admin API (/admin). Both share one cookie jar, so the session cookie
// the backend sets on login rides along on every later call.
package authify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"github.com/authify/authify-gateway/internal/core/domain"
	"github.com/authify/authify-gateway/internal/core/ports"
)

const (
	defaultTimeout   = 10 * time.Second
	maxErrorBodySize = 64 << 10
)

// Config describes where the backend lives.
type Config struct {
	BaseURL   string
	UserPath  string
	AdminPath string
	Timeout   time.Duration
	// Transport overrides the default round tripper (tests, instrumentation).
	Transport http.RoundTripper
}

// ObserveFunc receives one sample per backend call. outcome is "ok" or the
// classified error kind.
type ObserveFunc func(call, outcome string, took time.Duration)

// Factory opens Clients that share configuration but not credentials.
type Factory struct {
	cfg     Config
	origin  *url.URL
	user    *url.URL
	admin   *url.URL
	log     zerolog.Logger
	observe ObserveFunc
}

// NewFactory validates cfg and returns a Factory. observe may be nil.
func NewFactory(cfg Config, log zerolog.Logger, observe ObserveFunc) (*Factory, error) {
	origin, err := url.Parse(cfg.BaseURL)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("authify: invalid base url %q", cfg.BaseURL)
	}
	if cfg.UserPath == "" {
		cfg.UserPath = "/user"
	}
	if cfg.AdminPath == "" {
		cfg.AdminPath = "/admin"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if observe == nil {
		observe = func(string, string, time.Duration) {}
	}

	return &Factory{
		cfg:     cfg,
		origin:  origin,
		user:    origin.JoinPath(cfg.UserPath),
		admin:   origin.JoinPath(cfg.AdminPath),
		log:     log,
		observe: observe,
	}, nil
}

// Open returns a Client whose cookie jar is seeded with cookies.
func (f *Factory) Open(cookies []domain.Cookie) (ports.Backend, error) {
	return f.NewClient(cookies)
}

// NewClient is Open with the concrete return type.
func (f *Factory) NewClient(cookies []domain.Cookie) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("authify: cookie jar: %w", err)
	}

	seed := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		path := c.Path
		if path == "" {
			path = "/"
		}
		seed = append(seed, &http.Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Path:    path,
			Expires: c.Expires,
		})
	}
	if len(seed) > 0 {
		jar.SetCookies(f.origin, seed)
	}

	return &Client{
		http: &http.Client{
			Timeout:   f.cfg.Timeout,
			Jar:       jar,
			Transport: f.cfg.Transport,
		},
		jar:     jar,
		user:    f.user,
		admin:   f.admin,
		log:     f.log,
		observe: f.observe,
	}, nil
}

// Ping reports whether the backend answers HTTP at all. Any status counts;
// an unauthenticated profile probe is expected to come back 401.
func (f *Factory) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.user.JoinPath("profile").String(), nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: f.cfg.Timeout, Transport: f.cfg.Transport}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("authify ping: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}

// Client talks to the backend on behalf of one session.
type Client struct {
	http    *http.Client
	jar     http.CookieJar
	user    *url.URL
	admin   *url.URL
	log     zerolog.Logger
	observe ObserveFunc
}

var _ ports.Backend = (*Client)(nil)

// Cookies returns the cookies the backend would receive on the next call.
func (c *Client) Cookies() []domain.Cookie {
	seen := make(map[string]struct{})
	var out []domain.Cookie
	for _, u := range []*url.URL{c.user, c.admin} {
		for _, hc := range c.jar.Cookies(u) {
			if _, ok := seen[hc.Name]; ok {
				continue
			}
			seen[hc.Name] = struct{}{}
			out = append(out, domain.Cookie{Name: hc.Name, Value: hc.Value, Path: "/"})
		}
	}
	return out
}

func (c *Client) Register(ctx context.Context, in ports.RegisterInput) error {
	return c.do(ctx, callRegister, c.user, http.MethodPost, nil, registerRequest{
		Name:            in.Name,
		Email:           in.Email,
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
	}, nil, "register")
}

func (c *Client) VerifyAccount(ctx context.Context, email, otp string) error {
	return c.do(ctx, callVerifyAccount, c.user, http.MethodPost, emailQuery(email), otpRequest{OTP: otp}, nil, "verify-account")
}

func (c *Client) ResendVerification(ctx context.Context, email string) error {
	return c.do(ctx, callResendVerification, c.user, http.MethodPost, emailQuery(email), nil, nil, "resend-verification")
}

func (c *Client) Login(ctx context.Context, email, password string) (*ports.LoginOutput, error) {
	var out authResponse
	if err := c.do(ctx, callLogin, c.user, http.MethodPost, nil, loginRequest{Email: email, Password: password}, &out, "login"); err != nil {
		return nil, err
	}
	return &ports.LoginOutput{Token: out.Token, Email: out.Email, Roles: out.Roles, Name: out.Name}, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, callLogout, c.user, http.MethodPost, nil, nil, nil, "logout")
}

func (c *Client) Profile(ctx context.Context) (*ports.LoginOutput, error) {
	var out authResponse
	if err := c.do(ctx, callProfile, c.user, http.MethodGet, nil, nil, &out, "profile"); err != nil {
		return nil, err
	}
	return &ports.LoginOutput{Email: out.Email, Roles: out.Roles, Name: out.Name}, nil
}

func (c *Client) SendResetOTP(ctx context.Context, email string) error {
	return c.do(ctx, callSendResetOTP, c.user, http.MethodPost, emailQuery(email), nil, nil, "send-reset-otp")
}

func (c *Client) VerifyResetOTP(ctx context.Context, email, otp string) error {
	return c.do(ctx, callVerifyResetOTP, c.user, http.MethodPost, nil, verifyOTPRequest{Email: email, OTP: otp}, nil, "verify-reset-otp")
}

func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	return c.do(ctx, callResetPassword, c.user, http.MethodPost, nil, resetPasswordRequest{
		Email:       email,
		OTP:         otp,
		NewPassword: newPassword,
	}, nil, "reset-password")
}

func (c *Client) ListUsers(ctx context.Context, page, size int) (*domain.UserPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var out pageResponse
	if err := c.do(ctx, callListUsers, c.admin, http.MethodGet, q, nil, &out, "users"); err != nil {
		return nil, err
	}

	users := make([]domain.AdminUser, 0, len(out.Content))
	for _, u := range out.Content {
		users = append(users, u.toDomain())
	}
	return &domain.UserPage{
		Content:    users,
		TotalPages: out.TotalPages,
		Page:       page + 1,
		Size:       size,
	}, nil
}

func (c *Client) PromoteToAdmin(ctx context.Context, userID string) error {
	return c.do(ctx, callPromote, c.admin, http.MethodPost, nil, nil, nil, "admin", userID, "promote-to-admin")
}

func (c *Client) FindByEmail(ctx context.Context, email string) (*domain.AdminUser, error) {
	var out userResponse
	if err := c.do(ctx, callFindByEmail, c.admin, http.MethodGet, nil, nil, &out, "email", email); err != nil {
		return nil, err
	}
	u := out.toDomain()
	return &u, nil
}

func (c *Client) FindByID(ctx context.Context, id string) (*domain.AdminUser, error) {
	var out userResponse
	if err := c.do(ctx, callFindByID, c.admin, http.MethodGet, nil, nil, &out, "id", id); err != nil {
		return nil, err
	}
	u := out.toDomain()
	return &u, nil
}

// do sends one JSON request and decodes the JSON answer into out when out is
// non-nil. Every failure comes back as *APIError.
func (c *Client) do(ctx context.Context, call string, base *url.URL, method string, query url.Values, in, out any, path ...string) error {
	start := time.Now()
	err := c.roundTrip(ctx, call, base, method, query, in, out, path...)
	took := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = string(domain.KindOf(err))
	}
	c.observe(call, outcome, took)
	c.log.Debug().Str("call", call).Str("outcome", outcome).Dur("took", took).Msg("backend call")
	return err
}

func (c *Client) roundTrip(ctx context.Context, call string, base *url.URL, method string, query url.Values, in, out any, path ...string) error {
	u := base.JoinPath(path...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &APIError{Call: call, Kind: domain.ErrServer, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return &APIError{Call: call, Kind: domain.ErrServer, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Call: call, Message: networkMessage, Kind: domain.ErrNetwork, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &APIError{
			Call:    call,
			Status:  resp.StatusCode,
			Message: errorMessage(raw),
			Kind:    classify(call, resp.StatusCode),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &APIError{Call: call, Status: resp.StatusCode, Kind: domain.ErrServer, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func emailQuery(email string) url.Values {
	q := url.Values{}
	q.Set("email", email)
	return q
}
