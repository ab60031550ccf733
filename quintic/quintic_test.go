package quintic

import (
	"math"
	"testing"
	"time"
)

func TestEvaluateEndpoints(t *testing.T) {
	dur := 100 * time.Millisecond
	for _, kind := range []Easing{Linear, Smootherstep, Sigmoid, Quintic} {
		if got := Evaluate(kind, 10, 20, dur, 0); math.Abs(got-10) > 1e-9 {
			t.Errorf("kind %v: Evaluate(tau=0) = %v, want 10", kind, got)
		}
		if got := Evaluate(kind, 10, 20, dur, dur); math.Abs(got-20) > 1e-9 {
			t.Errorf("kind %v: Evaluate(tau=duration) = %v, want 20", kind, got)
		}
	}
}

func TestEvaluateClampsOutOfRangeTau(t *testing.T) {
	dur := 50 * time.Millisecond
	if got := Evaluate(Quintic, 0, 100, dur, -10*time.Millisecond); got != 0 {
		t.Errorf("negative tau should clamp to start, got %v", got)
	}
	if got := Evaluate(Quintic, 0, 100, dur, dur*2); got != 100 {
		t.Errorf("tau beyond duration should clamp to end, got %v", got)
	}
}

func TestQuinticMonotonic(t *testing.T) {
	dur := 100 * time.Millisecond
	prev := -1.0
	for i := 0; i <= 10; i++ {
		tau := time.Duration(i) * dur / 10
		v := Evaluate(Quintic, 0, 1, dur, tau)
		if v < prev {
			t.Fatalf("quintic profile not monotonic at step %d: %v < %v", i, v, prev)
		}
		prev = v
	}
}

func TestSigmoidRescaledToUnitRange(t *testing.T) {
	dur := time.Second
	mid := Evaluate(Sigmoid, 0, 1, dur, dur/2)
	if math.Abs(mid-0.5) > 1e-9 {
		t.Errorf("sigmoid midpoint = %v, want 0.5 by symmetry", mid)
	}
}

func TestZeroDurationReturnsEnd(t *testing.T) {
	if got := Evaluate(Quintic, 5, 9, 0, 0); got != 9 {
		t.Errorf("zero duration should return end immediately, got %v", got)
	}
}

func TestParseEasingRoundTrips(t *testing.T) {
	for _, k := range []Easing{Linear, Smootherstep, Sigmoid, Quintic} {
		parsed, err := ParseEasing(k.String())
		if err != nil {
			t.Fatalf("ParseEasing(%q): %v", k.String(), err)
		}
		if parsed != k {
			t.Errorf("ParseEasing(%q) = %v, want %v", k.String(), parsed, k)
		}
	}
}

func TestParseEasingRejectsUnknown(t *testing.T) {
	if _, err := ParseEasing("bogus"); err == nil {
		t.Error("expected an error for an unknown easing name")
	}
}
