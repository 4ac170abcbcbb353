package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg LimiterConfig) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return NewRedisLimiter(rdb, cfg), mr
}

func TestRedisLimiterThrottles(t *testing.T) {
	l, _ := newTestLimiter(t, LimiterConfig{MaxFailures: 3, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Check(ctx, "bob@x.com"); err != nil {
			t.Fatalf("Check before failure %d: %v", i, err)
		}
		if err := l.RecordFailure(ctx, "bob@x.com"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	if err := l.Check(ctx, "bob@x.com"); !errors.Is(err, ErrThrottled) {
		t.Fatalf("got %v, want ErrThrottled", err)
	}
	if err := l.Check(ctx, "alice@x.com"); err != nil {
		t.Fatalf("other keys must not be throttled: %v", err)
	}
}

func TestRedisLimiterWindowExpires(t *testing.T) {
	l, mr := newTestLimiter(t, LimiterConfig{MaxFailures: 1, Window: time.Minute})
	ctx := context.Background()

	if err := l.RecordFailure(ctx, "bob@x.com"); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if err := l.Check(ctx, "bob@x.com"); !errors.Is(err, ErrThrottled) {
		t.Fatalf("got %v, want ErrThrottled", err)
	}

	mr.FastForward(2 * time.Minute)
	if err := l.Check(ctx, "bob@x.com"); err != nil {
		t.Fatalf("window should have expired: %v", err)
	}
}

func TestRedisLimiterReset(t *testing.T) {
	l, _ := newTestLimiter(t, LimiterConfig{MaxFailures: 1})
	ctx := context.Background()

	_ = l.RecordFailure(ctx, "Bob@X.com")
	if err := l.Check(ctx, "bob@x.com"); !errors.Is(err, ErrThrottled) {
		t.Fatalf("keys should be case-insensitive, got %v", err)
	}
	if err := l.Reset(ctx, "bob@x.com"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := l.Check(ctx, "bob@x.com"); err != nil {
		t.Fatalf("after reset: %v", err)
	}
}

func TestRedisLimiterUnavailable(t *testing.T) {
	l, mr := newTestLimiter(t, LimiterConfig{})
	mr.Close()

	if err := l.Check(context.Background(), "bob@x.com"); !errors.Is(err, ErrLimiterUnavailable) {
		t.Fatalf("got %v, want ErrLimiterUnavailable", err)
	}
}
