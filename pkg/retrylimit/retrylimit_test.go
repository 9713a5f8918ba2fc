package retrylimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), nil, fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("want success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("want 3 calls, got %d", calls)
	}
}

func TestWithRetry_GivesUp(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), nil, fastConfig(2), func() error {
		calls++
		return errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("want wrapped transient error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("want 2 calls, got %d", calls)
	}
}

func TestWithRetry_FatalStops(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), nil, fastConfig(5), func() error {
		calls++
		return Fatal(errTransient)
	})
	if !errors.Is(err, errTransient) || calls != 1 {
		t.Fatalf("want one call and the inner error, got %d calls, %v", calls, err)
	}
}

func TestWithRetry_NotRetryable(t *testing.T) {
	cfg := fastConfig(5)
	cfg.Retryable = func(error) bool { return false }

	calls := 0
	WithRetry(context.Background(), nil, cfg, func() error {
		calls++
		return errTransient
	})
	if calls != 1 {
		t.Fatalf("want 1 call, got %d", calls)
	}
}

func TestWithRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, NewLimiter(1, 1), fastConfig(3), func() error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestLimiter_Burst(t *testing.T) {
	lim := NewLimiter(1, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for i := 0; i < 2; i++ {
		if err := lim.Wait(ctx); err != nil {
			t.Fatalf("burst token %d: %v", i, err)
		}
	}
	if err := lim.Wait(ctx); err == nil {
		t.Fatalf("want third call to exceed the deadline")
	}
}
