package testutil

import (
	"fmt"
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequirePitch fails t unless every hop of track in [from, to) lies within
// tolHz of wantHz.
func RequirePitch(t *testing.T, track []float64, from, to int, wantHz, tolHz float64) {
	t.Helper()
	if from < 0 || to > len(track) || from >= to {
		t.Fatalf("hop range [%d, %d) outside track of %d hops", from, to, len(track))
	}
	for i := from; i < to; i++ {
		if math.Abs(track[i]-wantHz) > tolHz {
			t.Fatalf("hop %d: got %.3f Hz, want %.3f ± %v", i, track[i], wantHz, tolHz)
		}
	}
}

// MaxAbsDiff returns the maximum absolute difference between two slices.
// Returns an error if the slices differ in length.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}
	maxDiff := 0.0
	for i := range a {
		maxDiff = max(maxDiff, math.Abs(a[i]-b[i]))
	}
	return maxDiff, nil
}
