package ports

import (
	"context"

	"github.com/authify/authify-gateway/internal/core/domain"
)

// SessionStore persists gateway sessions keyed by the browser cookie value.
type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
