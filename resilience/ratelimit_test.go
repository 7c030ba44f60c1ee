package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimiter_Burst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 3})
	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("call %d refused within burst", i+1)
		}
	}
	if rl.Allow() {
		t.Fatal("call beyond burst allowed")
	}
	err := rl.Execute(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("Execute() error = %v, want ErrRateLimitExceeded", err)
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{})
	if rl.config.Rate != 50 || rl.config.Burst != 10 || rl.config.MaxWait != time.Second {
		t.Errorf("config = %+v", rl.config)
	}
	if got := rl.Tokens(); got < 9.9 {
		t.Errorf("Tokens() = %v, want full bucket", got)
	}
}

func TestRateLimiter_WaitOnLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 100, Burst: 1, WaitOnLimit: true, MaxWait: time.Second})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := rl.Execute(ctx, func(context.Context) error { return nil }); err != nil {
			t.Fatalf("Execute() %d error = %v", i, err)
		}
	}
}

func TestRateLimiter_WaitBeyondMaxWait(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.1, Burst: 1, WaitOnLimit: true, MaxWait: 10 * time.Millisecond})
	ctx := context.Background()
	if err := rl.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if err := rl.Wait(ctx); !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("Wait() error = %v, want ErrRateLimitExceeded", err)
	}
}

func TestRateLimiter_WaitCanceled(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rl.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait() error = %v, want context.Canceled", err)
	}
}
