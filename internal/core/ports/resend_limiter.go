package ports

import (
	"context"
	"time"
)

// ResendLimiter gates OTP resends per flow and email.
type ResendLimiter interface {
	// Start opens the cooldown window. Called when the first OTP of a flow
	// goes out, so an immediate resend is already gated.
	Start(ctx context.Context, flow, email string) error
	// Allow reports whether a resend may go out now and, when it may, claims
	// the next window. When it may not, the remaining cooldown is returned.
	Allow(ctx context.Context, flow, email string) (bool, time.Duration, error)
}
