// Package rate enforces per-identifier sign-in attempt limits for the hosted
// identity backend using Redis counters with a cooldown TTL.
package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRateLimited is returned when the attempt budget is exhausted.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis transport failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Config holds limiter tuning parameters. A MaxAttempts of zero disables
// the limiter entirely.
type Config struct {
	MaxAttempts int
	Cooldown    time.Duration
}

// Limiter counts failed sign-in attempts per identifier.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
	prefix string
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
		prefix: "ba:rl:signin:",
	}
}

func (l *Limiter) key(identifier string) string {
	return l.prefix + identifier
}

// Check returns ErrRateLimited when the identifier has exhausted its budget.
func (l *Limiter) Check(ctx context.Context, identifier string) error {
	if l == nil || l.config.MaxAttempts <= 0 {
		return nil
	}

	count, err := l.redis.Get(ctx, l.key(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// RecordFailure increments the identifier's failed-attempt counter, starting
// the cooldown window on first failure.
func (l *Limiter) RecordFailure(ctx context.Context, identifier string) error {
	if l == nil || l.config.MaxAttempts <= 0 {
		return nil
	}

	key := l.key(identifier)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count == 1 && l.config.Cooldown > 0 {
		if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// Reset clears the failed-attempt counter after a successful sign-in.
func (l *Limiter) Reset(ctx context.Context, identifier string) error {
	if l == nil || l.config.MaxAttempts <= 0 {
		return nil
	}
	if err := l.redis.Del(ctx, l.key(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
