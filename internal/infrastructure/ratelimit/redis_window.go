package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "rate_limit:"
	window    = 60 * time.Second
)

// redisCounter es el subconjunto de *redis.Client que usa el limitador
type redisCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisWindowLimiter counts requests per client in a fixed one-minute window
// shared by every instance pointing at the same redis.
type RedisWindowLimiter struct {
	client redisCounter
	limit  int
	now    func() time.Time
}

// NewRedisWindowLimiter crea el limitador distribuido
func NewRedisWindowLimiter(client *redis.Client, requestsPerMinute int) *RedisWindowLimiter {
	return newRedisWindowLimiter(client, requestsPerMinute, time.Now)
}

func newRedisWindowLimiter(client redisCounter, requestsPerMinute int, now func() time.Time) *RedisWindowLimiter {
	return &RedisWindowLimiter{client: client, limit: requestsPerMinute, now: now}
}

// Key returns the redis key for a client
func Key(clientID string) string {
	return keyPrefix + clientID
}

// Allow implements Limiter. Redis failures are reported as ErrUnavailable.
func (l *RedisWindowLimiter) Allow(ctx context.Context, clientID string) (Decision, error) {
	key := Key(clientID)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// primer hit de la ventana
	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		// clave sin expiración (p.ej. EXPIRE perdido): la reparamos
		ttl = window
		_ = l.client.Expire(ctx, key, window).Err()
	}

	now := l.now()
	decision := Decision{
		Limit:   l.limit,
		ResetAt: now.Add(ttl),
	}

	if count > int64(l.limit) {
		decision.RetryAfter = ttl
		return decision, nil
	}

	decision.Allowed = true
	decision.Remaining = l.limit - int(count)
	return decision, nil
}
