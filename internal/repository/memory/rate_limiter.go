package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
)

type window struct {
	count   int
	resetAt time.Time
}

type rateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewRateLimiter counts events per key in fixed windows, in process memory
func NewRateLimiter(now func() time.Time) notification.RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &rateLimiter{windows: make(map[string]*window), now: now}
}

func (l *rateLimiter) Allow(ctx context.Context, key string, limit int, period time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(period)}
		l.windows[key] = w
	}
	w.count++
	return w.count <= limit, nil
}
