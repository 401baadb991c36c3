package retry

import (
	"testing"
	"time"
)

func TestExponentialBackoff_Defaults(t *testing.T) {
	b := NewExponentialBackoff(3)

	if b.MaxAttempts() != 3 {
		t.Errorf("Expected MaxAttempts 3, got %d", b.MaxAttempts())
	}
	if b.InitialDelay() != 100*time.Millisecond {
		t.Errorf("Expected initial delay 100ms, got %v", b.InitialDelay())
	}
	if b.MaxDelay() != 30*time.Second {
		t.Errorf("Expected max delay 30s, got %v", b.MaxDelay())
	}
}

func TestExponentialBackoff_NextDelay_GrowsExponentially(t *testing.T) {
	b := NewExponentialBackoff(10,
		WithInitialDelay(100*time.Millisecond),
		WithMultiplier(2.0),
		WithJitter(0),
	)

	expected := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
	}

	for attempt, want := range expected {
		got := b.NextDelay(attempt)
		if got != want {
			t.Errorf("Attempt %d: expected delay %v, got %v", attempt, want, got)
		}
	}
}

func TestExponentialBackoff_NextDelay_CappedAtMaxDelay(t *testing.T) {
	b := NewExponentialBackoff(20,
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(1*time.Second),
		WithJitter(0),
	)

	// 100ms * 2^10 would be over 100s; must be capped at 1s
	got := b.NextDelay(10)
	if got != 1*time.Second {
		t.Errorf("Expected capped delay 1s, got %v", got)
	}
}

func TestExponentialBackoff_NextDelay_JitterBounds(t *testing.T) {
	// Deterministic jitter at the extremes of [0, 1)
	for _, jitterValue := range []float64{0.0, 0.999} {
		b := NewExponentialBackoff(5,
			WithInitialDelay(100*time.Millisecond),
			WithJitter(0.1),
			WithJitterFunc(func() float64 { return jitterValue }),
		)

		got := b.NextDelay(0)
		min := 90 * time.Millisecond
		max := 110 * time.Millisecond
		if got < min || got > max {
			t.Errorf("jitterFunc=%v: delay %v outside [%v, %v]", jitterValue, got, min, max)
		}
	}
}

func TestExponentialBackoff_NextDelay_JitterDeterministic(t *testing.T) {
	// jitterFunc returning 0.5 maps to zero offset, so the delay is exact
	b := NewExponentialBackoff(5,
		WithInitialDelay(200*time.Millisecond),
		WithJitter(0.2),
		WithJitterFunc(func() float64 { return 0.5 }),
	)

	got := b.NextDelay(0)
	if got != 200*time.Millisecond {
		t.Errorf("Expected exact 200ms with centered jitter, got %v", got)
	}
}

func TestExponentialBackoff_ZeroAttempts(t *testing.T) {
	b := NewExponentialBackoff(0)
	if b.MaxAttempts() != 0 {
		t.Errorf("Expected MaxAttempts 0, got %d", b.MaxAttempts())
	}
}

func TestExponentialBackoff_UnlimitedAttempts(t *testing.T) {
	b := NewExponentialBackoff(-1)
	if b.MaxAttempts() != -1 {
		t.Errorf("Expected MaxAttempts -1, got %d", b.MaxAttempts())
	}
}
