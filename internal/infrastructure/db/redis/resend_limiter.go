package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/authify/authify-gateway/internal/core/ports"
)

// ResendLimiter enforces the OTP resend cooldown across gateway replicas.
// Key format: otp_resend:<flow>:<email>
type ResendLimiter struct {
	client   *redis.Client
	cooldown time.Duration
}

var _ ports.ResendLimiter = (*ResendLimiter)(nil)

// NewResendLimiter creates a ResendLimiter wrapping the given Redis client.
func NewResendLimiter(client *redis.Client, cooldown time.Duration) *ResendLimiter {
	return &ResendLimiter{client: client, cooldown: cooldown}
}

// Start opens the cooldown window unconditionally, overwriting any earlier one.
func (l *ResendLimiter) Start(ctx context.Context, flow, email string) error {
	if err := l.client.Set(ctx, l.key(flow, email), "1", l.cooldown).Err(); err != nil {
		return fmt.Errorf("resend cooldown start: %w", err)
	}
	return nil
}

// Allow claims the cooldown slot with SET NX. When the slot is taken the
// remaining TTL is reported.
func (l *ResendLimiter) Allow(ctx context.Context, flow, email string) (bool, time.Duration, error) {
	key := l.key(flow, email)

	ok, err := l.client.SetNX(ctx, key, "1", l.cooldown).Result()
	if err != nil {
		return false, 0, fmt.Errorf("resend cooldown: %w", err)
	}
	if ok {
		return true, 0, nil
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("resend cooldown ttl: %w", err)
	}
	if ttl < 0 {
		ttl = l.cooldown
	}
	return false, ttl, nil
}

func (l *ResendLimiter) key(flow, email string) string {
	return fmt.Sprintf("otp_resend:%s:%s", flow, email)
}
