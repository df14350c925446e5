package conv

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-pitch/dsp/core"
)

// Errors returned by convolution functions.
var (
	ErrEmptyInput     = errors.New("conv: empty input")
	ErrEmptyKernel    = errors.New("conv: empty kernel")
	ErrLengthMismatch = errors.New("conv: buffer length mismatch")
	ErrInvalidSize    = errors.New("conv: invalid FFT size")
	ErrSizeExceeded   = errors.New("conv: output exceeds convolver size")
)

// DirectThreshold is the output length from which [Convolve] switches from
// the direct sum to FFT convolution.
const DirectThreshold = 128

// Direct performs direct time-domain linear convolution of a and b.
// Returns a new slice of length len(a) + len(b) - 1.
func Direct(a, b []float64) ([]float64, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}
	if len(b) == 0 {
		return nil, ErrEmptyKernel
	}

	result := make([]float64, len(a)+len(b)-1)
	if err := DirectTo(result, a, b); err != nil {
		return nil, err
	}
	return result, nil
}

// vectorTaps is the kernel length from which DirectTo accumulates through
// algo-vecmath instead of the scalar double loop.
const vectorTaps = 4

// DirectTo performs direct convolution, writing to a pre-allocated destination.
// dst must have length len(a) + len(b) - 1:
//
//	dst[i+j] += a[i] * b[j]
func DirectTo(dst, a, b []float64) error {
	if len(a) == 0 {
		return ErrEmptyInput
	}
	if len(b) == 0 {
		return ErrEmptyKernel
	}

	n := len(a)
	m := len(b)
	if len(dst) != n+m-1 {
		return fmt.Errorf("%w: dst length %d, want %d", ErrLengthMismatch, len(dst), n+m-1)
	}

	core.Zero(dst)
	if m >= vectorTaps {
		directVector(dst, a, b)
	} else {
		directScalar(dst, a, b)
	}
	return nil
}

func directScalar(dst, a, b []float64) {
	for i, x := range a {
		for j, h := range b {
			dst[i+j] += x * h
		}
	}
}

// directVector adds the kernel scaled by each input sample into its slot.
func directVector(dst, a, b []float64) {
	m := len(b)
	scaled := make([]float64, m)
	for i, x := range a {
		vecmath.ScaleBlock(scaled, b, x)
		vecmath.AddBlockInPlace(dst[i:i+m], scaled)
	}
}

// Convolve performs linear convolution with automatic algorithm selection.
// Outputs shorter than DirectThreshold use the direct sum; longer ones use a
// one-shot FFT convolver sized to the next power of two.
func Convolve(a, b []float64) ([]float64, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}
	if len(b) == 0 {
		return nil, ErrEmptyKernel
	}

	nOut := len(a) + len(b) - 1
	if nOut < DirectThreshold {
		return Direct(a, b)
	}

	c, err := NewFFTConvolver(core.NextPowerOf2(nOut))
	if err != nil {
		return nil, err
	}

	result := make([]float64, nOut)
	if err := c.ConvolveTo(result, a, b); err != nil {
		return nil, err
	}
	return result, nil
}
