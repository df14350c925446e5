package conv

import (
	"fmt"

	"github.com/cwbudde/algo-pitch/dsp/core"
	"github.com/cwbudde/algo-pitch/dsp/fft"
)

// FFTConvolver computes linear convolutions whose output fits in a fixed
// power-of-two transform size. All scratch memory is allocated once, so
// ConvolveTo does not allocate.
type FFTConvolver struct {
	size int

	forward *fft.RFFT
	inverse *fft.IRFFT

	padA  []float64
	padB  []float64
	specA []complex128
	specB []complex128
	out   []float64
}

// NewFFTConvolver creates a convolver for outputs of at most maxSize samples.
// maxSize must be a power of two >= 2.
func NewFFTConvolver(maxSize int) (*FFTConvolver, error) {
	if maxSize < 2 || !core.IsPowerOf2(maxSize) {
		return nil, fmt.Errorf("%w: maxSize must be power of 2, got %d", ErrInvalidSize, maxSize)
	}

	forward, err := fft.NewRFFT(maxSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create forward transform: %w", err)
	}
	inverse, err := fft.NewIRFFT(maxSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create inverse transform: %w", err)
	}

	bins := maxSize/2 + 1
	return &FFTConvolver{
		size:    maxSize,
		forward: forward,
		inverse: inverse,
		padA:    make([]float64, maxSize),
		padB:    make([]float64, maxSize),
		specA:   make([]complex128, bins),
		specB:   make([]complex128, bins),
		out:     make([]float64, maxSize),
	}, nil
}

// Size returns the transform size, the largest supported output length.
func (c *FFTConvolver) Size() int {
	return c.size
}

// ConvolveTo writes the linear convolution of a and b into dst.
// dst must have length len(a)+len(b)-1, which must not exceed Size.
func (c *FFTConvolver) ConvolveTo(dst, a, b []float64) error {
	if len(a) == 0 {
		return ErrEmptyInput
	}
	if len(b) == 0 {
		return ErrEmptyKernel
	}

	nOut := len(a) + len(b) - 1
	if nOut > c.size {
		return fmt.Errorf("%w: output length %d, size %d", ErrSizeExceeded, nOut, c.size)
	}
	if len(dst) != nOut {
		return fmt.Errorf("%w: dst length %d, want %d", ErrLengthMismatch, len(dst), nOut)
	}

	core.Zero(c.padA[copy(c.padA, a):])
	core.Zero(c.padB[copy(c.padB, b):])

	if err := c.forward.Transform(c.specA, c.padA); err != nil {
		return err
	}
	if err := c.forward.Transform(c.specB, c.padB); err != nil {
		return err
	}

	for k := range c.specA {
		c.specA[k] *= c.specB[k]
	}

	if err := c.inverse.Transform(c.out, c.specA); err != nil {
		return err
	}

	copy(dst, c.out[:nOut])
	return nil
}
