package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/authify/authify-gateway/internal/core/domain"
	"github.com/authify/authify-gateway/internal/core/ports"
)

const (
	defaultPageSize       = 10
	defaultSearchMaxPages = 50
	defaultSearchWorkers  = 4
)

// AdminOptions tunes paging and the cross-page search.
type AdminOptions struct {
	DefaultPageSize int
	SearchMaxPages  int
	SearchWorkers   int
}

// AdminService backs the user-management table.
type AdminService struct {
	backend ports.AdminBackend
	opts    AdminOptions
	log     zerolog.Logger
}

func NewAdminService(backend ports.AdminBackend, opts AdminOptions, log zerolog.Logger) *AdminService {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = defaultPageSize
	}
	if opts.SearchMaxPages <= 0 {
		opts.SearchMaxPages = defaultSearchMaxPages
	}
	if opts.SearchWorkers <= 0 {
		opts.SearchWorkers = defaultSearchWorkers
	}
	return &AdminService{backend: backend, opts: opts, log: log}
}

func (s *AdminService) normalize(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = s.opts.DefaultPageSize
	}
	return page, size
}

// ListUsers loads a 1-based page. The server counts pages from zero.
func (s *AdminService) ListUsers(ctx context.Context, page, size int) (*domain.UserPage, error) {
	page, size = s.normalize(page, size)

	res, err := s.backend.ListUsers(ctx, page-1, size)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	res.Page = page
	res.Size = size
	if res.Content == nil {
		res.Content = []domain.AdminUser{}
	}
	return res, nil
}

// Search filters users by name or email across every server page, not just
// the one on screen, and paginates the matches locally. An empty query is a
// plain ListUsers.
func (s *AdminService) Search(ctx context.Context, query string, page, size int) (*domain.UserPage, error) {
	if strings.TrimSpace(query) == "" {
		return s.ListUsers(ctx, page, size)
	}
	page, size = s.normalize(page, size)

	first, err := s.backend.ListUsers(ctx, 0, size)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	total := first.TotalPages
	truncated := total > s.opts.SearchMaxPages
	if truncated {
		s.log.Warn().Int("total_pages", total).Int("max_pages", s.opts.SearchMaxPages).Msg("search truncated")
		total = s.opts.SearchMaxPages
	}

	pages := make([][]domain.AdminUser, max(total, 1))
	pages[0] = first.Content

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.SearchWorkers)
	for i := 1; i < total; i++ {
		i := i
		g.Go(func() error {
			res, err := s.backend.ListUsers(gctx, i, size)
			if err != nil {
				return err
			}
			pages[i] = res.Content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	var matched []domain.AdminUser
	for _, p := range pages {
		for _, u := range p {
			if u.Matches(query) {
				matched = append(matched, u)
			}
		}
	}

	res := paginate(matched, page, size)
	res.Truncated = truncated
	return res, nil
}

func paginate(users []domain.AdminUser, page, size int) *domain.UserPage {
	totalPages := (len(users) + size - 1) / size
	if totalPages == 0 {
		totalPages = 1
	}
	start := min((page-1)*size, len(users))
	end := min(start+size, len(users))

	content := make([]domain.AdminUser, end-start)
	copy(content, users[start:end])
	return &domain.UserPage{Content: content, TotalPages: totalPages, Page: page, Size: size}
}

// Promote grants the admin role and reloads the page the caller was on.
func (s *AdminService) Promote(ctx context.Context, userID string, page, size int) (*domain.UserPage, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewValidationError("id", "User id is required")
	}
	if err := s.backend.PromoteToAdmin(ctx, userID); err != nil {
		return nil, fmt.Errorf("promote %s: %w", userID, err)
	}
	s.log.Info().Str("user_id", userID).Msg("user promoted to admin")
	return s.ListUsers(ctx, page, size)
}

// Perform runs a table row action. Only promote has a backend contract;
// the rest report ErrUnsupportedAction.
func (s *AdminService) Perform(ctx context.Context, userID, action string, page, size int) (*domain.UserPage, error) {
	a, ok := domain.ParseAdminAction(action)
	if !ok {
		return nil, domain.NewValidationError("action", fmt.Sprintf("Unknown action %q", action))
	}
	if !a.Supported() {
		return nil, fmt.Errorf("%s: %w", a, domain.ErrUnsupportedAction)
	}
	return s.Promote(ctx, userID, page, size)
}

func (s *AdminService) FindByEmail(ctx context.Context, email string) (*domain.AdminUser, error) {
	if !ValidEmail(email) {
		return nil, domain.NewValidationError("email", "Invalid email format.")
	}
	u, err := s.backend.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (s *AdminService) FindByID(ctx context.Context, id string) (*domain.AdminUser, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("id", "User id is required")
	}
	u, err := s.backend.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}
