// Package cooldown gates repeated actions per key (channel, user) within a window.
package cooldown

import (
	"sync"
	"time"
)

// Limiter remembers the last accepted call per key. Safe for concurrent use.
type Limiter struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// New returns a limiter with the given window.
func New(window time.Duration) *Limiter {
	return NewWithClock(window, time.Now)
}

// NewWithClock is New with an injectable clock.
func NewWithClock(window time.Duration, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		window: window,
		now:    now,
		last:   make(map[string]time.Time),
	}
}

// Check reports whether key is still cooling down. A gated call does not
// move the window; an accepted call records the current time.
func (l *Limiter) Check(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if at, ok := l.last[key]; ok && now.Sub(at) < l.window {
		return true
	}
	l.last[key] = now
	return false
}

// Sweep deletes keys whose window has passed and returns how many it removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, at := range l.last {
		if now.Sub(at) >= l.window {
			delete(l.last, key)
			removed++
		}
	}
	return removed
}

// Len is the number of keys currently tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.last)
}

func (l *Limiter) Window() time.Duration { return l.window }
