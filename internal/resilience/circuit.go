package resilience

import (
	"sync"
	"time"
)

// Breaker tracks consecutive failures of one upstream and opens for a
// cooldown period once a threshold is reached within a sliding window.
// The cascade uses one per strategy so a flaky source is skipped quickly
// during batch runs instead of burning an attempt per query.
type Breaker struct {
	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	openUntil   time.Time

	threshold int           // consecutive failures to trip
	window    time.Duration // failures must occur within this window
	cooldown  time.Duration // how long the circuit stays open

	now func() time.Time // injectable for testing
}

// NewBreaker creates a breaker that opens after threshold consecutive
// failures within window, and stays open for cooldown.
func NewBreaker(threshold int, window, cooldown time.Duration) *Breaker {
	return &Breaker{
		threshold: threshold,
		window:    window,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (b *Breaker) WithNow(now func() time.Time) *Breaker {
	b.now = now
	return b
}

// Open reports whether calls should currently be skipped.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now().Before(b.openUntil)
}

// RecordFailure counts one failure, tripping the breaker at the threshold.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	if now.Sub(b.lastFailure) > b.window {
		b.failures = 0
	}
	b.failures++
	b.lastFailure = now
	if b.failures >= b.threshold {
		b.openUntil = now.Add(b.cooldown)
	}
}

// RecordSuccess resets the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}
