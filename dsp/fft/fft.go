// Package fft provides power-of-two real-input transforms: a forward
// transform producing the non-redundant half spectrum and its inverse.
//
// Both directions run on a real plan from algo-fft. Forward and inverse
// are separate types so that a caller cannot feed a half spectrum where a
// real signal is expected.
package fft

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-pitch/dsp/core"
)

// Errors returned by transform constructors and Transform calls.
var (
	ErrInvalidSize    = errors.New("fft: size must be a power of two >= 2")
	ErrLengthMismatch = errors.New("fft: buffer length mismatch")
)

// transform is the state shared by both directions.
type transform struct {
	n    int
	plan *algofft.PlanRealT[float64, complex128]
}

func newTransform(n int) (transform, error) {
	if n < 2 || !core.IsPowerOf2(n) {
		return transform{}, fmt.Errorf("%w: got %d", ErrInvalidSize, n)
	}

	plan, err := algofft.NewPlanReal64(n)
	if err != nil {
		return transform{}, fmt.Errorf("fft: failed to create plan: %w", err)
	}

	return transform{n: n, plan: plan}, nil
}

// Size returns the transform length.
func (t *transform) Size() int { return t.n }

// Bins returns the half-spectrum length n/2+1.
func (t *transform) Bins() int { return t.n/2 + 1 }

// RFFT is a forward real-to-complex transform of fixed power-of-two size.
type RFFT struct {
	transform
}

// NewRFFT creates a forward transform of size n.
func NewRFFT(n int) (*RFFT, error) {
	t, err := newTransform(n)
	if err != nil {
		return nil, err
	}
	return &RFFT{transform: t}, nil
}

// Transform writes the first n/2+1 bins of the spectrum of src into dst.
// The transform is unnormalised.
func (r *RFFT) Transform(dst []complex128, src []float64) error {
	if len(src) != r.n {
		return fmt.Errorf("%w: src length %d, want %d", ErrLengthMismatch, len(src), r.n)
	}
	if len(dst) != r.Bins() {
		return fmt.Errorf("%w: dst length %d, want %d", ErrLengthMismatch, len(dst), r.Bins())
	}

	if err := r.plan.Forward(dst, src); err != nil {
		return fmt.Errorf("fft: forward transform: %w", err)
	}
	return nil
}

// IRFFT is an inverse complex-to-real transform of fixed power-of-two size.
type IRFFT struct {
	transform
	spectrum []complex128
}

// NewIRFFT creates an inverse transform of size n.
func NewIRFFT(n int) (*IRFFT, error) {
	t, err := newTransform(n)
	if err != nil {
		return nil, err
	}
	return &IRFFT{transform: t, spectrum: make([]complex128, t.Bins())}, nil
}

// Transform reconstructs the real sequence whose half spectrum is src.
// The result is scaled by 1/n, so it inverts RFFT.Transform exactly.
// Imaginary parts of the DC and Nyquist bins are ignored. src is not
// modified.
func (r *IRFFT) Transform(dst []float64, src []complex128) error {
	half := r.n / 2
	if len(src) != half+1 {
		return fmt.Errorf("%w: src length %d, want %d", ErrLengthMismatch, len(src), half+1)
	}
	if len(dst) != r.n {
		return fmt.Errorf("%w: dst length %d, want %d", ErrLengthMismatch, len(dst), r.n)
	}

	// The plan rejects spectra whose edge bins are not purely real.
	copy(r.spectrum, src)
	r.spectrum[0] = complex(real(src[0]), 0)
	r.spectrum[half] = complex(real(src[half]), 0)

	if err := r.plan.Inverse(dst, r.spectrum); err != nil {
		return fmt.Errorf("fft: inverse transform: %w", err)
	}
	return nil
}
