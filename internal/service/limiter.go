package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultOTPMaxFailures   = 5
	defaultOTPFailureWindow = 15 * time.Minute
)

var (
	ErrThrottled          = errors.New("too many failed verification attempts")
	ErrLimiterUnavailable = errors.New("verification limiter unavailable")
)

// OTPLimiter counts failed OTP verifications per key.
type OTPLimiter interface {
	Check(ctx context.Context, key string) error
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// LimiterConfig holds the failure threshold and the window it applies to.
type LimiterConfig struct {
	MaxFailures int
	Window      time.Duration
}

// RedisLimiter keeps a failure counter per key that expires one window
// after the first failure.
type RedisLimiter struct {
	redis       redis.UniversalClient
	maxFailures int64
	window      time.Duration
}

// NewRedisLimiter creates a limiter. Zero-value fields in cfg fall back to
// 5 failures per 15 minutes.
func NewRedisLimiter(client redis.UniversalClient, cfg LimiterConfig) *RedisLimiter {
	max := cfg.MaxFailures
	if max <= 0 {
		max = defaultOTPMaxFailures
	}
	window := cfg.Window
	if window <= 0 {
		window = defaultOTPFailureWindow
	}
	return &RedisLimiter{redis: client, maxFailures: int64(max), window: window}
}

func (l *RedisLimiter) key(k string) string {
	return "masski:otp_fail:" + strings.ToLower(k)
}

// Check returns ErrThrottled once the failure budget for key is spent.
func (l *RedisLimiter) Check(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, l.key(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	if count >= l.maxFailures {
		return ErrThrottled
	}
	return nil
}

// RecordFailure increments the counter for key, starting the window on the
// first failure.
func (l *RedisLimiter) RecordFailure(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, l.key(key)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, l.key(key), l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}
	}
	return nil
}

// Reset clears the counter for key.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.redis.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	return nil
}

// noopLimiter is used when no Redis is configured.
type noopLimiter struct{}

func (noopLimiter) Check(context.Context, string) error         { return nil }
func (noopLimiter) RecordFailure(context.Context, string) error { return nil }
func (noopLimiter) Reset(context.Context, string) error         { return nil }
