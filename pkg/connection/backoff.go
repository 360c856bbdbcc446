package connection

import (
	"math/rand"
	"sync"
	"time"
)

// Default backoff parameters. Config fields left at zero fall back to these.
const (
	// DefaultInitialDelay is the delay before the second attempt.
	DefaultInitialDelay = 1 * time.Second

	// DefaultMaxDelay caps the exponential growth.
	DefaultMaxDelay = 60 * time.Second

	// DefaultJitter is the default jitter fraction.
	DefaultJitter = 0.25
)

// Backoff maps a 1-indexed attempt number to a retry delay.
//
// The base delay doubles per attempt starting from the initial delay and is
// capped at the maximum. Jitter scales the base by a uniform random factor
// in [1-jitter, 1+jitter]; it is symmetric and multiplicative, so a jitter
// of zero yields the base delay exactly.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	jitter  float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBackoff creates a backoff calculator. Non-positive delays and an
// out-of-range jitter are replaced with the defaults.
func NewBackoff(initial, max time.Duration, jitter float64) *Backoff {
	if initial <= 0 {
		initial = DefaultInitialDelay
	}
	if max <= 0 {
		max = DefaultMaxDelay
	}
	if max < initial {
		max = initial
	}
	if jitter < 0 || jitter > 1 {
		jitter = DefaultJitter
	}

	return &Backoff{
		initial: initial,
		max:     max,
		jitter:  jitter,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// DelayForAttempt returns the delay to wait after attempt n (1-indexed)
// fails. The result is never negative.
func (b *Backoff) DelayForAttempt(n int) time.Duration {
	if n < 1 {
		n = 1
	}

	base := b.initial
	for i := 1; i < n && base < b.max; i++ {
		base *= 2
	}
	if base > b.max {
		base = b.max
	}

	if b.jitter == 0 {
		return base
	}

	b.mu.Lock()
	factor := 1 - b.jitter + 2*b.jitter*b.rng.Float64()
	b.mu.Unlock()

	delay := time.Duration(float64(base) * factor)
	if delay < 0 {
		delay = 0
	}
	return delay
}
