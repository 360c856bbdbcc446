package connection

import (
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	t.Run("DeterministicSequence", func(t *testing.T) {
		b := NewBackoff(1*time.Second, 60*time.Second, 0)

		// Without jitter: 1s, 2s, 4s, 8s, 16s, 32s, 60s, 60s...
		expected := []time.Duration{
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			16 * time.Second,
			32 * time.Second,
			60 * time.Second,
			60 * time.Second, // Should stay at max
		}

		for i, exp := range expected {
			got := b.DelayForAttempt(i + 1)
			if got != exp {
				t.Errorf("DelayForAttempt(%d) = %v, want %v", i+1, got, exp)
			}
		}
	})

	t.Run("CapAtMax", func(t *testing.T) {
		b := NewBackoff(100*time.Millisecond, 500*time.Millisecond, 0)

		expected := []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
			500 * time.Millisecond, // Max
			500 * time.Millisecond,
		}

		for i, exp := range expected {
			got := b.DelayForAttempt(i + 1)
			if got != exp {
				t.Errorf("DelayForAttempt(%d) = %v, want %v", i+1, got, exp)
			}
		}
	})

	t.Run("JitterRange", func(t *testing.T) {
		b := NewBackoff(1*time.Second, 60*time.Second, 0.25)

		// With jitter 0.25 the first delay must fall within [0.75s, 1.25s].
		lo := time.Duration(float64(time.Second) * 0.75)
		hi := time.Duration(float64(time.Second) * 1.25)

		samples := make([]time.Duration, 50)
		for i := range samples {
			samples[i] = b.DelayForAttempt(1)
			if samples[i] < lo || samples[i] > hi {
				t.Errorf("Sample %d: %v out of expected range [%v, %v]", i, samples[i], lo, hi)
			}
		}

		// At least some samples should be different (jitter should vary)
		allSame := true
		for i := 1; i < len(samples); i++ {
			if samples[i] != samples[0] {
				allSame = false
				break
			}
		}
		if allSame {
			t.Error("All jittered samples are identical - jitter may not be working")
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		b := NewBackoff(0, 0, 0)

		if got := b.DelayForAttempt(1); got != DefaultInitialDelay {
			t.Errorf("DelayForAttempt(1) = %v, want %v", got, DefaultInitialDelay)
		}
		if got := b.DelayForAttempt(20); got != DefaultMaxDelay {
			t.Errorf("DelayForAttempt(20) = %v, want %v", got, DefaultMaxDelay)
		}
	})

	t.Run("InvalidJitterFallsBack", func(t *testing.T) {
		b := NewBackoff(1*time.Second, 60*time.Second, 1.5)

		if b.jitter != DefaultJitter {
			t.Errorf("jitter = %v, want %v", b.jitter, DefaultJitter)
		}
	})

	t.Run("AttemptBelowOne", func(t *testing.T) {
		b := NewBackoff(1*time.Second, 60*time.Second, 0)

		if got := b.DelayForAttempt(0); got != 1*time.Second {
			t.Errorf("DelayForAttempt(0) = %v, want 1s", got)
		}
		if got := b.DelayForAttempt(-3); got != 1*time.Second {
			t.Errorf("DelayForAttempt(-3) = %v, want 1s", got)
		}
	})

	t.Run("MaxBelowInitial", func(t *testing.T) {
		b := NewBackoff(2*time.Second, 1*time.Second, 0)

		// Max is raised to the initial delay.
		if got := b.DelayForAttempt(5); got != 2*time.Second {
			t.Errorf("DelayForAttempt(5) = %v, want 2s", got)
		}
	})

	t.Run("NeverNegative", func(t *testing.T) {
		b := NewBackoff(1*time.Millisecond, 10*time.Millisecond, 1)

		for i := 1; i <= 100; i++ {
			if got := b.DelayForAttempt(i); got < 0 {
				t.Fatalf("DelayForAttempt(%d) = %v, want >= 0", i, got)
			}
		}
	})
}
