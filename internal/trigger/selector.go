package trigger

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Selector draws the probability gate and picks a reply. Safe for concurrent use.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector returns a selector seeded from the clock.
func NewSelector() *Selector {
	seed := uint64(time.Now().UnixNano())
	return NewSeededSelector(seed, seed>>1|1)
}

// NewSeededSelector returns a deterministic selector, used by tests.
func NewSeededSelector(seed1, seed2 uint64) *Selector {
	return &Selector{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// Select returns the reply to send for r, or false when the probability gate
// suppresses it. A draw in [0,100) at or above the probability suppresses, so
// probability 0 never answers and 100 always does.
func (s *Selector) Select(r Record) (string, bool) {
	if len(r.Replies) == 0 {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Probability < 100 {
		if s.rng.Float64()*100 >= float64(r.Probability) {
			return "", false
		}
	}
	return r.Replies[int(s.rng.Float64()*float64(len(r.Replies)))], true
}
