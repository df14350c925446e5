package conv

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-pitch/internal/testutil"
)

func TestDirect(t *testing.T) {
	tests := []struct {
		name     string
		a        []float64
		b        []float64
		expected []float64
	}{
		{
			name:     "simple 3x3",
			a:        []float64{1, 2, 3},
			b:        []float64{1, 1, 1},
			expected: []float64{1, 3, 6, 5, 3},
		},
		{
			name:     "impulse",
			a:        []float64{1, 2, 3, 4, 5},
			b:        []float64{1},
			expected: []float64{1, 2, 3, 4, 5},
		},
		{
			name:     "delayed impulse",
			a:        []float64{1, 2, 3, 4, 5},
			b:        []float64{0, 0, 1},
			expected: []float64{0, 0, 1, 2, 3, 4, 5},
		},
		{
			name:     "symmetric",
			a:        []float64{1, 2, 1},
			b:        []float64{1, 2, 1},
			expected: []float64{1, 4, 6, 4, 1},
		},
		{
			name:     "kernel longer than input",
			a:        []float64{2},
			b:        []float64{1, -1, 0.5},
			expected: []float64{2, -2, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Direct(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(result) != len(tt.expected) {
				t.Fatalf("length mismatch: got %d, expected %d", len(result), len(tt.expected))
			}

			for i := range result {
				if math.Abs(result[i]-tt.expected[i]) > 1e-10 {
					t.Errorf("result[%d] = %v, expected %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestDirectErrors(t *testing.T) {
	_, err := Direct([]float64{}, []float64{1, 2})
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}

	_, err = Direct([]float64{1, 2}, []float64{})
	if !errors.Is(err, ErrEmptyKernel) {
		t.Errorf("expected ErrEmptyKernel, got %v", err)
	}

	for _, n := range []int{2, 4} {
		err = DirectTo(make([]float64, n), []float64{1, 2}, []float64{1, 2})
		if !errors.Is(err, ErrLengthMismatch) {
			t.Errorf("dst length %d: expected ErrLengthMismatch, got %v", n, err)
		}
	}

	if err := DirectTo(make([]float64, 3), []float64{1, 2}, []float64{1, 2}); err != nil {
		t.Errorf("exact dst length: unexpected error %v", err)
	}
}

func TestDirectToKernelLengths(t *testing.T) {
	a := testutil.DeterministicNoise(3, 1, 37)

	// Kernels on both sides of the vectorised path.
	for m := 1; m <= 9; m++ {
		b := testutil.DeterministicNoise(int64(m), 1, m)

		want := make([]float64, len(a)+m-1)
		for i := range a {
			for j := range b {
				want[i+j] += a[i] * b[j]
			}
		}

		// Stale content in dst must not leak into the result.
		got := testutil.Ones(len(want))
		if err := DirectTo(got, a, b); err != nil {
			t.Fatalf("m=%d: %v", m, err)
		}
		testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)
	}
}

func TestFFTConvolverMatchesDirect(t *testing.T) {
	tests := []struct {
		name string
		n, m int
		size int
	}{
		{name: "tiny", n: 3, m: 2, size: 4},
		{name: "exact fit", n: 100, m: 29, size: 128},
		{name: "slack", n: 300, m: 65, size: 512},
		{name: "kernel longer", n: 17, m: 200, size: 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testutil.DeterministicNoise(1, 1, tt.n)
			b := testutil.DeterministicNoise(2, 1, tt.m)

			want, err := Direct(a, b)
			if err != nil {
				t.Fatal(err)
			}

			c, err := NewFFTConvolver(tt.size)
			if err != nil {
				t.Fatal(err)
			}

			got := make([]float64, len(want))
			if err := c.ConvolveTo(got, a, b); err != nil {
				t.Fatal(err)
			}

			testutil.RequireSliceNearlyEqual(t, got, want, 1e-9)
		})
	}
}

func TestFFTConvolverReuse(t *testing.T) {
	c, err := NewFFTConvolver(64)
	if err != nil {
		t.Fatal(err)
	}

	// A long call followed by a short one must not leak stale padding.
	long := make([]float64, 40+20-1)
	if err := c.ConvolveTo(long, testutil.Ones(40), testutil.Ones(20)); err != nil {
		t.Fatal(err)
	}

	short := make([]float64, 3)
	if err := c.ConvolveTo(short, []float64{1, 2}, []float64{3, 4}); err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, short, []float64{3, 10, 8}, 1e-12)
}

func TestFFTConvolverErrors(t *testing.T) {
	if _, err := NewFFTConvolver(100); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("NewFFTConvolver(100) error = %v, want ErrInvalidSize", err)
	}

	c, err := NewFFTConvolver(16)
	if err != nil {
		t.Fatal(err)
	}
	if c.Size() != 16 {
		t.Fatalf("Size() = %d, want 16", c.Size())
	}

	err = c.ConvolveTo(make([]float64, 17), make([]float64, 10), make([]float64, 8))
	if !errors.Is(err, ErrSizeExceeded) {
		t.Fatalf("oversized request error = %v, want ErrSizeExceeded", err)
	}

	err = c.ConvolveTo(make([]float64, 4), make([]float64, 2), make([]float64, 2))
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("wrong dst error = %v, want ErrLengthMismatch", err)
	}
}

func TestConvolveThreshold(t *testing.T) {
	for _, n := range []int{10, 100, 127, 128, 129, 1000} {
		a := testutil.DeterministicNoise(int64(n), 1, n)
		b := testutil.DeterministicNoise(7, 1, 1+n/10)

		want, _ := Direct(a, b)
		got, err := Convolve(a, b)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}

		diff, err := testutil.MaxAbsDiff(got, want)
		if err != nil {
			t.Fatal(err)
		}
		if diff > 1e-9 {
			t.Fatalf("n=%d: max diff %g", n, diff)
		}
	}
}
