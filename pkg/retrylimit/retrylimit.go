// Package retrylimit throttles outbound calls and retries the ones that fail
// with a transient error.
//
//	lim := retrylimit.NewLimiter(5, 5)
//	err := retrylimit.WithRetry(ctx, lim, retrylimit.Config{MaxAttempts: 3}, send)
package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket shared by every caller of one outbound channel.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter allows perSecond calls on average with the given burst.
func NewLimiter(perSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

func (l *Limiter) Limit() float64 { return float64(l.limiter.Limit()) }

// FatalError stops retries immediately.
type FatalError struct {
	Err error
}

func (f *FatalError) Error() string { return f.Err.Error() }
func (f *FatalError) Unwrap() error { return f.Err }

// Fatal marks err as not worth retrying.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// Config controls WithRetry. Zero values take the defaults.
type Config struct {
	MaxAttempts  int           // default 3
	InitialDelay time.Duration // default 250ms
	MaxDelay     time.Duration // default 5s
	Retryable    func(error) bool
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 250 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 5 * time.Second
	}
	return c
}

// WithRetry calls fn up to MaxAttempts times, waiting for lim before each
// attempt and doubling the delay between failures. A nil lim skips throttling.
func WithRetry(ctx context.Context, lim *Limiter, cfg Config, fn func() error) error {
	cfg = cfg.withDefaults()
	delay := cfg.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return err
			}
		}

		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				log.Printf("[INFO] Succeeded after %d attempts", attempt)
			}
			return nil
		}

		var fatal *FatalError
		if errors.As(lastErr, &fatal) {
			return fatal.Err
		}
		if cfg.Retryable != nil && !cfg.Retryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		log.Printf("[WARN] Attempt %d failed: %v. Retrying in %v", attempt, lastErr, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jitter(delay)):
		}
		delay = min(delay*2, cfg.MaxDelay)
	}
	return fmt.Errorf("giving up after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// jitter adds up to 25% to d.
func jitter(d time.Duration) time.Duration {
	if d < 4 {
		return d
	}
	return d + time.Duration(rand.Int64N(int64(d/4)))
}
