package testutil

import (
	"math"
	"testing"
)

func TestDeterministicSine(t *testing.T) {
	s := DeterministicSine(1000, 48000, 1.0, 48)
	if len(s) != 48 {
		t.Fatalf("len = %d, want 48", len(s))
	}
	if math.Abs(s[0]) > 1e-15 {
		t.Fatalf("s[0] = %v, want 0", s[0])
	}
	// Quarter period of 1 kHz at 48 kHz is 12 samples.
	if math.Abs(s[12]-1) > 1e-12 {
		t.Fatalf("s[12] = %v, want 1", s[12])
	}
	for i, v := range s {
		if v < -1 || v > 1 {
			t.Fatalf("s[%d] = %v out of range", i, v)
		}
	}
}

func TestHarmonic(t *testing.T) {
	const sr = 8000.0

	// Partials four and five reach Nyquist and are dropped.
	got := Harmonic(1000, sr, []float64{0.5, 0.25, 0, 1, 1}, 64)
	want := make([]float64, 64)
	for i := range want {
		ph := 2 * math.Pi * 1000 * float64(i) / sr
		want[i] = 0.5*math.Sin(ph) + 0.25*math.Sin(2*ph)
	}
	RequireSliceNearlyEqual(t, got, want, 1e-12)
}

func TestDeterministicNoise(t *testing.T) {
	a := DeterministicNoise(42, 1.0, 64)
	b := DeterministicNoise(42, 1.0, 64)
	RequireSliceNearlyEqual(t, a, b, 0)
	for i, v := range a {
		if v < -1 || v > 1 {
			t.Fatalf("a[%d] = %v out of range", i, v)
		}
	}

	c := DeterministicNoise(43, 1.0, 64)
	if d, _ := MaxAbsDiff(a, c); d == 0 {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestOnes(t *testing.T) {
	for i, v := range Ones(5) {
		if v != 1 {
			t.Fatalf("Ones[%d] = %v", i, v)
		}
	}
}
