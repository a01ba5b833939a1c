package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestDisabledLimiter(t *testing.T) {
	l := New(0, 0)

	if l.Enabled() {
		t.Error("rate 0 should disable the limiter")
	}
	if !l.TryAcquire() {
		t.Error("TryAcquire on disabled limiter should succeed")
	}
	if err := l.Acquire(context.Background()); err != nil {
		t.Errorf("Acquire on disabled limiter: %v", err)
	}

	l = New(-1, 0)
	if l.Enabled() {
		t.Error("negative rate should disable the limiter")
	}
}

func TestStartsEmpty(t *testing.T) {
	l := New(2, 4)

	// Tokens accrue over time; none are available immediately.
	if l.TryAcquire() {
		t.Error("fresh limiter should start with an empty bucket")
	}
}

func TestTokensAccrue(t *testing.T) {
	l := New(100, 1)

	time.Sleep(50 * time.Millisecond)
	if !l.TryAcquire() {
		t.Error("expected a token after 50ms at 100 req/s")
	}
}

func TestAcquireBlocksUntilToken(t *testing.T) {
	l := New(50, 1)

	start := time.Now()
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	// At 50 req/s the first token takes about 20ms to appear.
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("Acquire returned after %v, expected it to wait", elapsed)
	}
}

func TestAcquireRespectsContext(t *testing.T) {
	l := New(0.1, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := l.Acquire(ctx); err == nil {
		t.Error("Acquire should fail when the context expires first")
	}
}

func TestBurstBound(t *testing.T) {
	l := New(1000, 5)
	time.Sleep(100 * time.Millisecond) // plenty of time to fill the bucket

	granted := 0
	for i := 0; i < 20; i++ {
		if l.TryAcquire() {
			granted++
		}
	}
	// The bucket can never hold more than the burst; a couple extra tokens
	// may accrue while draining.
	if granted > 7 {
		t.Errorf("granted %d tokens at once, burst is 5", granted)
	}
	if granted < 5 {
		t.Errorf("granted %d tokens, expected the full burst of 5", granted)
	}
}

func TestSetRateClearsBucket(t *testing.T) {
	l := New(1000, 10)
	time.Sleep(50 * time.Millisecond)

	if !l.TryAcquire() {
		t.Fatal("expected tokens before SetRate")
	}

	l.SetRate(1000, 10)
	if l.TryAcquire() {
		t.Error("SetRate should discard accumulated tokens")
	}

	if l.Rate() != 1000 {
		t.Errorf("Rate = %g, want 1000", l.Rate())
	}
}

func TestSetRateDisables(t *testing.T) {
	l := New(10, 10)
	l.SetRate(0, 0)

	if l.Enabled() {
		t.Error("SetRate(0) should disable the limiter")
	}
	if !l.TryAcquire() {
		t.Error("TryAcquire after disabling should succeed")
	}
}

func TestBurstDefaultsToRate(t *testing.T) {
	l := New(7, 0)
	l.mu.Lock()
	burst := l.burst
	l.mu.Unlock()
	if burst != 7 {
		t.Errorf("burst = %d, want 7 (defaulted from rate)", burst)
	}
}
