package redis

import (
	"context"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	goredis "github.com/redis/go-redis/v9"
)

type rateLimiter struct {
	client goredis.UniversalClient
	prefix string
}

// NewRateLimiter counts events per key in fixed windows shared by every instance
func NewRateLimiter(client goredis.UniversalClient) notification.RateLimiter {
	return &rateLimiter{client: client, prefix: "ratelimit"}
}

func (l *rateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	countKey := l.prefix + ":" + key

	count, err := l.client.Incr(ctx, countKey).Result()
	if err != nil {
		return false, err
	}

	// First hit opens the window
	if count == 1 {
		if err := l.client.Expire(ctx, countKey, window).Err(); err != nil {
			return false, err
		}
	}

	return count <= int64(limit), nil
}
