package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coursehub/coursehub/internal/shared"
)

// AttemptLimiter throttles repeated login failures per credential key.
type AttemptLimiter interface {
	// Check returns ErrTooManyAttempts once the key is over budget.
	Check(ctx context.Context, key string) error
	// RecordFailure bumps the failure count for the key.
	RecordFailure(ctx context.Context, key string) error
	// Reset clears the failure count after a successful login.
	Reset(ctx context.Context, key string) error
}

// RedisAttemptLimiter counts failures in Redis with a sliding lockout window.
type RedisAttemptLimiter struct {
	client      redis.UniversalClient
	maxAttempts int
	window      time.Duration
}

// NewRedisAttemptLimiter returns a limiter allowing maxAttempts failures per
// window before locking the key out.
func NewRedisAttemptLimiter(client redis.UniversalClient, maxAttempts int, window time.Duration) *RedisAttemptLimiter {
	return &RedisAttemptLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

func attemptKey(key string) string {
	return fmt.Sprintf("login_attempts:%s", key)
}

// Check implements AttemptLimiter.
func (l *RedisAttemptLimiter) Check(ctx context.Context, key string) error {
	count, err := l.client.Get(ctx, attemptKey(key)).Int()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		// Redis being down must not lock everyone out.
		return nil
	}
	if count >= l.maxAttempts {
		return shared.ErrTooManyAttempts
	}
	return nil
}

// RecordFailure implements AttemptLimiter.
func (l *RedisAttemptLimiter) RecordFailure(ctx context.Context, key string) error {
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, attemptKey(key))
	pipe.Expire(ctx, attemptKey(key), l.window)
	_, err := pipe.Exec(ctx)
	return err
}

// Reset implements AttemptLimiter.
func (l *RedisAttemptLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, attemptKey(key)).Err()
}

// NopLimiter never throttles. Used where Redis is not configured.
type NopLimiter struct{}

// Check implements AttemptLimiter.
func (NopLimiter) Check(context.Context, string) error { return nil }

// RecordFailure implements AttemptLimiter.
func (NopLimiter) RecordFailure(context.Context, string) error { return nil }

// Reset implements AttemptLimiter.
func (NopLimiter) Reset(context.Context, string) error { return nil }
