package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/authify/authify-gateway/internal/core/domain"
	"github.com/authify/authify-gateway/internal/core/ports"
)

const sessionCollection = "sessions"

// SessionStore implements ports.SessionStore using MongoDB. Expired
// documents are reaped by a TTL index on expires_at.
type SessionStore struct {
	col *mongo.Collection
}

var _ ports.SessionStore = (*SessionStore)(nil)

func NewSessionStore(db *mongo.Database) *SessionStore {
	return &SessionStore{col: db.Collection(sessionCollection)}
}

type mongoSession struct {
	ID                  string               `bson:"_id"`
	Email               string               `bson:"email,omitempty"`
	Name                string               `bson:"name,omitempty"`
	Roles               string               `bson:"roles,omitempty"`
	BackendCookies      []domain.Cookie      `bson:"backend_cookies,omitempty"`
	PendingVerification string               `bson:"pending_verification,omitempty"`
	PendingReset        *domain.PendingReset `bson:"pending_reset,omitempty"`
	CreatedAt           time.Time            `bson:"created_at"`
	ExpiresAt           time.Time            `bson:"expires_at"`
}

func toMongoSession(s *domain.Session) mongoSession {
	doc := mongoSession{
		ID:                  s.ID,
		BackendCookies:      s.BackendCookies,
		PendingVerification: s.PendingVerification,
		PendingReset:        s.PendingReset,
		CreatedAt:           s.CreatedAt.UTC(),
		ExpiresAt:           s.ExpiresAt.UTC(),
	}
	if u := s.State.User; u != nil {
		doc.Email = u.Email
		doc.Name = u.Name
		doc.Roles = u.Roles.String()
	}
	return doc
}

func (d mongoSession) toDomain() *domain.Session {
	s := &domain.Session{
		ID:                  d.ID,
		BackendCookies:      d.BackendCookies,
		PendingVerification: d.PendingVerification,
		PendingReset:        d.PendingReset,
		CreatedAt:           d.CreatedAt,
		ExpiresAt:           d.ExpiresAt,
	}
	if d.Email != "" {
		u := domain.NewUser(d.Email, d.Name, d.Roles)
		s.State = domain.SessionState{User: &u}
	}
	return s
}

func (r *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	var doc mongoSession
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	sess := doc.toDomain()
	// The TTL monitor runs about once a minute, so stale documents can linger.
	if sess.Expired(time.Now()) {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (r *SessionStore) Save(ctx context.Context, s *domain.Session) error {
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": s.ID}, toMongoSession(s), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SessionStore) Delete(ctx context.Context, id string) error {
	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionStore) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}

// EnsureIndexes creates the TTL index on the sessions collection.
func (r *SessionStore) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
	})
	return err
}
