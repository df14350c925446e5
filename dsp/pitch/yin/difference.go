package yin

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-pitch/dsp/core"
	"github.com/cwbudde/algo-pitch/dsp/fft"
)

// Errors returned by the difference worker.
var (
	ErrInvalidSize    = errors.New("yin: invalid frame size")
	ErrLengthMismatch = errors.New("yin: buffer length mismatch")
)

// DifferenceWorker computes YIN difference functions for frames of up to
// MaxSize samples. It owns its transforms and scratch space and is not safe
// for concurrent use.
type DifferenceWorker struct {
	size    int
	forward *fft.RFFT
	inverse *fft.IRFFT

	padded   []float64
	squares  []float64
	spectrum []complex128
	reversed []complex128
}

// NewDifferenceWorker creates a worker for frames of at most maxSize
// samples. maxSize must be a power of two.
func NewDifferenceWorker(maxSize int) (*DifferenceWorker, error) {
	if maxSize < 2 || !core.IsPowerOf2(maxSize) {
		return nil, fmt.Errorf("%w: maxSize must be a power of 2 >= 2, got %d", ErrInvalidSize, maxSize)
	}

	forward, err := fft.NewRFFT(maxSize)
	if err != nil {
		return nil, fmt.Errorf("yin: %w", err)
	}
	inverse, err := fft.NewIRFFT(maxSize)
	if err != nil {
		return nil, fmt.Errorf("yin: %w", err)
	}

	bins := maxSize/2 + 1
	return &DifferenceWorker{
		size:     maxSize,
		forward:  forward,
		inverse:  inverse,
		padded:   make([]float64, maxSize),
		squares:  make([]float64, maxSize),
		spectrum: make([]complex128, bins),
		reversed: make([]complex128, bins),
	}, nil
}

// MaxSize returns the largest frame length the worker accepts.
func (w *DifferenceWorker) MaxSize() int {
	return w.size
}

// Difference writes the squared-difference function of x into dst[:len(x)/2]:
//
//	d(tau) = sum_{j<W} (x[j] - x[j+tau])^2,  W = len(x)/2
//
// expanded as power(0) + power(tau) - 2*r(tau), where power is a running sum
// of squares over a W-sample window and r the autocorrelation of the first
// half against the frame. len(x) must be even and at most MaxSize.
func (w *DifferenceWorker) Difference(dst, x []float64) error {
	n := len(x)
	if n == 0 || n%2 != 0 || n > w.size {
		return fmt.Errorf("%w: frame length %d (max %d, must be even)", ErrInvalidSize, n, w.size)
	}

	half := n / 2
	if len(dst) < half {
		return fmt.Errorf("%w: dst length %d, need %d", ErrLengthMismatch, len(dst), half)
	}
	out := dst[:half]

	sq := w.squares[:n]
	vecmath.MulBlock(sq, x, x)

	out[0] = floats.Sum(sq[:half])
	for i := 1; i < half; i++ {
		out[i] = out[i-1] - sq[i-1] + sq[i+half-1]
	}

	// r(tau) is read from the linear convolution of x with its reversed
	// first half at offset half-1. A transform of at least len(x) keeps
	// that region clear of circular wrap-around.
	core.Zero(w.padded[copy(w.padded, x):])
	if err := w.forward.Transform(w.spectrum, w.padded); err != nil {
		return err
	}

	for i := range half {
		w.padded[i] = x[half-i-1]
	}
	core.Zero(w.padded[half:])
	if err := w.forward.Transform(w.reversed, w.padded); err != nil {
		return err
	}

	for k := range w.spectrum {
		w.spectrum[k] *= w.reversed[k]
	}
	if err := w.inverse.Transform(w.padded, w.spectrum); err != nil {
		return err
	}

	p0 := out[0]
	for i := range out {
		out[i] += p0 - 2*w.padded[half-1+i]
	}
	return nil
}
