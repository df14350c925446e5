package fft

import (
	"errors"
	"math/cmplx"
	"testing"

	gofft "github.com/mjibson/go-dsp/fft"

	"github.com/cwbudde/algo-pitch/internal/testutil"
)

func TestNewInvalidSize(t *testing.T) {
	for _, n := range []int{-1, 0, 1, 3, 100} {
		if _, err := NewRFFT(n); !errors.Is(err, ErrInvalidSize) {
			t.Fatalf("NewRFFT(%d) error = %v, want ErrInvalidSize", n, err)
		}
		if _, err := NewIRFFT(n); !errors.Is(err, ErrInvalidSize) {
			t.Fatalf("NewIRFFT(%d) error = %v, want ErrInvalidSize", n, err)
		}
	}
}

func TestRFFTMatchesReference(t *testing.T) {
	for _, n := range []int{4, 8, 64, 1024} {
		x := testutil.DeterministicNoise(int64(n), 1, n)

		r, err := NewRFFT(n)
		if err != nil {
			t.Fatalf("NewRFFT(%d): %v", n, err)
		}

		got := make([]complex128, r.Bins())
		if err := r.Transform(got, x); err != nil {
			t.Fatalf("Transform: %v", err)
		}

		want := gofft.FFTReal(x)
		for k := range got {
			if cmplx.Abs(got[k]-want[k]) > 1e-9 {
				t.Fatalf("n=%d bin %d: got %v, want %v", n, k, got[k], want[k])
			}
		}
	}
}

func TestRoundTrip(t *testing.T) {
	const n = 256

	x := testutil.DeterministicSine(440, 8000, 0.7, n)

	r, err := NewRFFT(n)
	if err != nil {
		t.Fatal(err)
	}
	ir, err := NewIRFFT(n)
	if err != nil {
		t.Fatal(err)
	}

	spec := make([]complex128, n/2+1)
	if err := r.Transform(spec, x); err != nil {
		t.Fatal(err)
	}

	back := make([]float64, n)
	if err := ir.Transform(back, spec); err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, back, x, 1e-10)
}

func TestIRFFTIgnoresEdgeImaginary(t *testing.T) {
	const n = 64

	x := testutil.DeterministicNoise(7, 1, n)
	r, err := NewRFFT(n)
	if err != nil {
		t.Fatal(err)
	}
	ir, err := NewIRFFT(n)
	if err != nil {
		t.Fatal(err)
	}

	spec := make([]complex128, r.Bins())
	if err := r.Transform(spec, x); err != nil {
		t.Fatal(err)
	}
	spec[0] += 0.5i
	spec[n/2] -= 0.25i
	dc, nyq := spec[0], spec[n/2]

	back := make([]float64, n)
	if err := ir.Transform(back, spec); err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, back, x, 1e-10)

	if spec[0] != dc || spec[n/2] != nyq {
		t.Fatal("Transform modified its input spectrum")
	}
}

func TestTransformLengthMismatch(t *testing.T) {
	r, _ := NewRFFT(16)
	if err := r.Transform(make([]complex128, 9), make([]float64, 8)); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("short src: error = %v", err)
	}
	if err := r.Transform(make([]complex128, 16), make([]float64, 16)); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("full-length dst: error = %v", err)
	}

	ir, _ := NewIRFFT(16)
	if err := ir.Transform(make([]float64, 16), make([]complex128, 16)); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("full-length src: error = %v", err)
	}
	if ir.Size() != 16 || ir.Bins() != 9 {
		t.Fatalf("Size/Bins = %d/%d, want 16/9", ir.Size(), ir.Bins())
	}
}
