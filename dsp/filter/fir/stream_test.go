package fir

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-pitch/dsp/conv"
	"github.com/cwbudde/algo-pitch/dsp/window"
	"github.com/cwbudde/algo-pitch/internal/testutil"
)

// runStream feeds x in the given repeating chunk pattern, flushes, and
// returns everything the stream emitted. Each return value is checked
// against NextOutputSize.
func runStream(t *testing.T, s *Stream, x []float64, chunks []int) []float64 {
	t.Helper()

	var out []float64
	dst := make([]float64, MaxOutputSize(s.MaxChunk(), s.KernelSize()))

	pos, ci := 0, 0
	for pos < len(x) {
		n := min(chunks[ci%len(chunks)], len(x)-pos)
		ci++

		want := s.NextOutputSize(n)
		got, err := s.Process(dst, x[pos:pos+n])
		if err != nil {
			t.Fatalf("Process(%d samples): %v", n, err)
		}
		if got != want {
			t.Fatalf("Process(%d samples) = %d, NextOutputSize said %d", n, got, want)
		}
		out = append(out, dst[:got]...)
		pos += n
	}

	want := s.NextOutputSize(0)
	got, err := s.Process(dst, nil)
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got != want {
		t.Fatalf("flush = %d, NextOutputSize said %d", got, want)
	}
	out = append(out, dst[:got]...)

	if s.Delayed() != 0 {
		t.Fatalf("Delayed() after flush = %d, want 0", s.Delayed())
	}
	return out
}

func TestStreamDelayCompensation(t *testing.T) {
	tests := []struct {
		name     string
		taps     int
		maxChunk int
		chunks   []int
		n        int
	}{
		{name: "direct path", taps: 15, maxChunk: 16, chunks: []int{16, 3, 1, 7}, n: 200},
		{name: "fft path", taps: 201, maxChunk: 128, chunks: []int{128, 50, 1}, n: 1500},
		{name: "even kernel", taps: 64, maxChunk: 100, chunks: []int{100, 99}, n: 777},
		{name: "input shorter than delay", taps: 41, maxChunk: 8, chunks: []int{3}, n: 10},
		{name: "single tap", taps: 1, maxChunk: 4, chunks: []int{4}, n: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kernel := testutil.DeterministicNoise(int64(tt.taps), 1, tt.taps)
			x := testutil.DeterministicNoise(99, 1, tt.n)

			s, err := NewStream(kernel, tt.maxChunk)
			if err != nil {
				t.Fatal(err)
			}

			got := runStream(t, s, x, tt.chunks)

			full, err := conv.Direct(x, kernel)
			if err != nil {
				t.Fatal(err)
			}
			delay := tt.taps / 2
			testutil.RequireSliceNearlyEqual(t, got, full[delay:delay+tt.n], 1e-9)
		})
	}
}

func TestStreamMatchesDirectForm(t *testing.T) {
	kernel, err := DesignBandpass(63, 0, 2000, window.TypeBlackman, true, 8000)
	if err != nil {
		t.Fatal(err)
	}
	x := testutil.DeterministicSine(300, 16000, 1, 640)

	// y[n] = sum_k h[k] * x[n-k], evaluated sample by sample.
	want := make([]float64, len(x))
	for n := range want {
		for k, h := range kernel {
			if n-k >= 0 {
				want[n] += h * x[n-k]
			}
		}
	}

	s, err := NewStream(kernel, 64)
	if err != nil {
		t.Fatal(err)
	}
	got := runStream(t, s, x, []int{64})

	// Stream output leads the direct form by half the kernel.
	delay := len(kernel) / 2
	testutil.RequireSliceNearlyEqual(t, got[:len(x)-delay], want[delay:], 1e-9)
}

func TestStreamRestartsAfterFlush(t *testing.T) {
	kernel := []float64{0.25, 0.5, 0.25}
	s, err := NewStream(kernel, 4)
	if err != nil {
		t.Fatal(err)
	}

	x := []float64{1, 2, 3, 4}
	first := runStream(t, s, x, []int{4})
	second := runStream(t, s, x, []int{4})
	testutil.RequireSliceNearlyEqual(t, second, first, 1e-12)

	// Flushing an idle stream emits nothing.
	n, err := s.Process(nil, nil)
	if err != nil || n != 0 {
		t.Fatalf("idle flush = %d, %v", n, err)
	}
}

func TestStreamReset(t *testing.T) {
	s, err := NewStream([]float64{1, 1, 1, 1, 1}, 8)
	if err != nil {
		t.Fatal(err)
	}

	dst := make([]float64, 8)
	if _, err := s.Process(dst, []float64{5, 5, 5}); err != nil {
		t.Fatal(err)
	}
	if s.Delayed() != 2 {
		t.Fatalf("Delayed() = %d, want 2", s.Delayed())
	}

	s.Reset()
	if s.Delayed() != 0 {
		t.Fatalf("Delayed() after Reset = %d, want 0", s.Delayed())
	}

	n, err := s.Process(dst, []float64{1, 0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, dst[:n], []float64{1, 1}, 1e-12)
}

func TestStreamErrors(t *testing.T) {
	if _, err := NewStream(nil, 4); !errors.Is(err, ErrEmptyKernel) {
		t.Fatalf("empty kernel error = %v", err)
	}
	if _, err := NewStream([]float64{1}, 0); !errors.Is(err, ErrInvalidChunk) {
		t.Fatalf("zero chunk error = %v", err)
	}

	s, err := NewStream([]float64{1, 2, 3}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Process(make([]float64, 8), make([]float64, 5)); !errors.Is(err, ErrInvalidChunk) {
		t.Fatalf("oversized chunk error = %v", err)
	}
	if _, err := s.Process(make([]float64, 2), make([]float64, 4)); !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("short dst error = %v", err)
	}
}

func TestStreamHelpers(t *testing.T) {
	if Delay(2049) != 2048 {
		t.Fatalf("Delay(2049) = %d", Delay(2049))
	}
	if MaxOutputSize(128, 2049) != 1024 || MaxOutputSize(128, 31) != 128 {
		t.Fatalf("MaxOutputSize: %d %d", MaxOutputSize(128, 2049), MaxOutputSize(128, 31))
	}

	kernel := []float64{1, 2, 3}
	s, _ := NewStream(kernel, 4)
	kernel[0] = 100
	if s.kernel[0] != 1 {
		t.Fatal("NewStream did not copy kernel")
	}
	if s.KernelSize() != 3 {
		t.Fatalf("KernelSize() = %d", s.KernelSize())
	}
}
