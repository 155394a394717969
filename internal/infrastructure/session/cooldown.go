package session

import (
	"context"
	"sync"
	"time"

	"github.com/authify/authify-gateway/internal/core/ports"
)

// MemoryLimiter is the single-replica resend cooldown.
type MemoryLimiter struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     map[string]time.Time
	now      func() time.Time
}

var _ ports.ResendLimiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter(cooldown time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		cooldown: cooldown,
		last:     make(map[string]time.Time),
		now:      time.Now,
	}
}

func (l *MemoryLimiter) Start(_ context.Context, flow, email string) error {
	now := l.now()

	l.mu.Lock()
	l.last[flow+":"+email] = now
	l.mu.Unlock()
	return nil
}

func (l *MemoryLimiter) Allow(_ context.Context, flow, email string) (bool, time.Duration, error) {
	key := flow + ":" + email
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if at, ok := l.last[key]; ok {
		if wait := l.cooldown - now.Sub(at); wait > 0 {
			return false, wait, nil
		}
	}
	l.last[key] = now
	return true, 0, nil
}

// Sweep forgets every window that has run out and returns how many went.
func (l *MemoryLimiter) Sweep() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key, at := range l.last {
		if now.Sub(at) >= l.cooldown {
			delete(l.last, key)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (l *MemoryLimiter) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep()
		}
	}
}
