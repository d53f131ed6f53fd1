package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dtroode/shopwise-auth/internal/model"
)

const limiterKeyPrefix = "otp-requests:"

var _ model.RequestLimiter = (*Limiter)(nil)

// Limiter is a fixed-window counter per key.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewLimiter allows limit calls per key within each window.
func NewLimiter(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window}
}

// Allow counts a call for key and reports whether it fits the window budget.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	rk := limiterKeyPrefix + key

	count, err := l.client.Incr(ctx, rk).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment request counter: %w", err)
	}

	// The window starts with the first call.
	if count == 1 {
		if err := l.client.Expire(ctx, rk, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set request counter ttl: %w", err)
		}
	}

	return count <= int64(l.limit), nil
}
