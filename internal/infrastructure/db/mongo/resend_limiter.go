package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/authify/authify-gateway/internal/core/ports"
)

const resendCollection = "otp_resends"

// ResendLimiter enforces the OTP resend cooldown across gateway replicas
// when sessions live in mongo. One document per flow and email holds the
// end of the current window; a TTL index reaps finished ones.
type ResendLimiter struct {
	col      *mongo.Collection
	cooldown time.Duration
	now      func() time.Time
}

var _ ports.ResendLimiter = (*ResendLimiter)(nil)

func NewResendLimiter(db *mongo.Database, cooldown time.Duration) *ResendLimiter {
	return &ResendLimiter{col: db.Collection(resendCollection), cooldown: cooldown, now: time.Now}
}

type resendWindow struct {
	Key       string    `bson:"_id"`
	ExpiresAt time.Time `bson:"expires_at"`
}

func resendKey(flow, email string) string {
	return flow + ":" + email
}

// remaining is how long the window ending at end still runs at now. A
// document the TTL monitor has not reaped yet counts as finished.
func remaining(end, now time.Time) time.Duration {
	if wait := end.Sub(now); wait > 0 {
		return wait
	}
	return 0
}

func (l *ResendLimiter) Start(ctx context.Context, flow, email string) error {
	end := l.now().Add(l.cooldown).UTC()
	_, err := l.col.UpdateOne(ctx,
		bson.M{"_id": resendKey(flow, email)},
		bson.M{"$set": bson.M{"expires_at": end}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("resend cooldown start: %w", err)
	}
	return nil
}

// Allow claims the next window in one upsert: it matches only a missing or
// finished window. A live window makes the upsert collide on _id, and its
// end is then read back for the wait.
func (l *ResendLimiter) Allow(ctx context.Context, flow, email string) (bool, time.Duration, error) {
	key := resendKey(flow, email)
	now := l.now().UTC()

	_, err := l.col.UpdateOne(ctx,
		bson.M{"_id": key, "expires_at": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"expires_at": now.Add(l.cooldown)}},
		options.Update().SetUpsert(true),
	)
	if err == nil {
		return true, 0, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, 0, fmt.Errorf("resend cooldown: %w", err)
	}

	var w resendWindow
	if err := l.col.FindOne(ctx, bson.M{"_id": key}).Decode(&w); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Reaped between the two calls.
			return l.Allow(ctx, flow, email)
		}
		return false, 0, fmt.Errorf("resend cooldown window: %w", err)
	}
	wait := remaining(w.ExpiresAt, now)
	if wait == 0 {
		wait = l.cooldown
	}
	return false, wait, nil
}

// EnsureIndexes creates the TTL index on the resend collection.
func (l *ResendLimiter) EnsureIndexes(ctx context.Context) error {
	_, err := l.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
	})
	return err
}
