// Package ratelimit gates request dispatch with a token bucket.
//
// The bucket itself is golang.org/x/time/rate; this wrapper adds the
// client's semantics: a rate of zero or less disables the gate entirely,
// the burst defaults to the rate when unspecified, and changing the rate
// swaps in a fresh, empty bucket.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token-bucket gate. Safe for concurrent use.
type Limiter struct {
	mu    sync.Mutex
	rps   float64
	burst int
	lim   *rate.Limiter
}

// New creates a limiter allowing rps requests per second with the given
// burst capacity. burst <= 0 selects a burst equal to the rate. A rps <= 0
// disables limiting.
func New(rps float64, burst int) *Limiter {
	l := &Limiter{}
	l.configure(rps, burst)
	return l
}

func (l *Limiter) configure(rps float64, burst int) {
	l.rps = rps
	if burst <= 0 {
		burst = int(rps)
	}
	l.burst = burst
	if rps <= 0 {
		l.lim = nil
		return
	}
	l.lim = rate.NewLimiter(rate.Limit(rps), burst)
	// Start with an empty bucket: tokens accrue from now rather than the
	// full burst being available immediately.
	l.lim.AllowN(time.Now(), burst)
}

// Enabled reports whether the limiter is active.
func (l *Limiter) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lim != nil
}

// Rate returns the configured requests-per-second (0 when disabled).
func (l *Limiter) Rate() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rps
}

// Acquire blocks until a token is available or ctx is done. When the
// limiter is disabled it returns immediately.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	lim := l.lim
	l.mu.Unlock()
	if lim == nil {
		return nil
	}
	return lim.Wait(ctx)
}

// TryAcquire consumes a token if one is available without blocking.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	lim := l.lim
	l.mu.Unlock()
	if lim == nil {
		return true
	}
	return lim.Allow()
}

// SetRate atomically replaces the rate and burst, discarding any
// accumulated tokens.
func (l *Limiter) SetRate(rps float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.configure(rps, burst)
}
