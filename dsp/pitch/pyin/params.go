package pyin

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-pitch/dsp/core"
	"github.com/cwbudde/algo-pitch/dsp/filter/fir"
)

// ErrInvalidParams is returned for parameter sets that fail validation.
var ErrInvalidParams = errors.New("pyin: invalid parameters")

// Default beta prior over normalised valley depth.
const (
	DefaultPriorA    = 1.7
	DefaultPriorB    = 6.8
	DefaultPriorSize = 128
)

// Params configures a Processor. Obtain one from DefaultParams and adjust
// fields as needed; the Processor copies it on construction.
type Params struct {
	// Prior is the density over normalised valley depth in [0, 1), sampled
	// at len(Prior) evenly spaced points.
	Prior []float64

	SampleRate float64
	MinFreq    float64
	MaxFreq    float64

	ValleyThreshold float64
	ValleyStep      float64

	// Candidates whose refined depth is below ProbThreshold get their
	// probability multiplied by WeightPrior before renormalisation.
	ProbThreshold float64
	WeightPrior   float64

	// Bias scales every candidate probability.
	Bias float64

	HopSize       int
	MaxWindowSize int
	MaxIter       int

	// MaxInputSegment is the largest chunk accepted by Step.
	MaxInputSegment int

	// Prefilter enables the streaming anti-alias low-pass.
	Prefilter bool
}

// DefaultParams returns the standard configuration for the given range. A
// nil prior selects NormalizedBetaPrior(DefaultPriorA, DefaultPriorB,
// DefaultPriorSize).
func DefaultParams(minFreq, maxFreq, sampleRate float64, prior []float64) Params {
	if prior == nil {
		prior = NormalizedBetaPrior(DefaultPriorA, DefaultPriorB, DefaultPriorSize)
	}

	hop := HopSize(sampleRate)
	return Params{
		Prior:           prior,
		SampleRate:      sampleRate,
		MinFreq:         minFreq,
		MaxFreq:         maxFreq,
		ValleyThreshold: 1.0,
		ValleyStep:      0.01,
		ProbThreshold:   0.02,
		WeightPrior:     5.0,
		Bias:            1.0,
		HopSize:         hop,
		MaxWindowSize:   max(ceilPowerOf2(sampleRate/minFreq*4), hop),
		MaxIter:         4,
		MaxInputSegment: hop,
		Prefilter:       true,
	}
}

// HopSize returns the default hop for a sample rate: 2.5 ms rounded up to
// a power of two.
func HopSize(sampleRate float64) int {
	return ceilPowerOf2(sampleRate * 0.0025)
}

func ceilPowerOf2(v float64) int {
	return core.NextPowerOf2(int(math.Ceil(v)))
}

// NormalizedBetaPrior samples the beta(a, b) shape at n points of [0, 1),
// replaces each value by the maximum of itself and everything to its right
// (so the prior never increases with depth), and normalises the sum to 1.
func NormalizedBetaPrior(a, b float64, n int) []float64 {
	if n <= 0 {
		return nil
	}

	out := make([]float64, n)
	step := 1 / float64(n)
	for i := range out {
		x := float64(i) * step
		out[i] = math.Pow(x, a-1) * math.Pow(1-x, b-1)
	}

	for i := n - 2; i >= 0; i-- {
		if out[i] < out[i+1] {
			out[i] = out[i+1]
		}
	}

	if s := floats.Sum(out); s > 0 {
		floats.Scale(1/s, out)
	}
	return out
}

// Validate reports every invalid field at once.
func (p Params) Validate() error {
	var errs []error
	nyquist := p.SampleRate / 2

	if p.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate must be > 0, got %v", p.SampleRate))
	}
	if p.MinFreq <= 0 {
		errs = append(errs, fmt.Errorf("min freq must be > 0, got %v", p.MinFreq))
	}
	if p.MaxFreq <= p.MinFreq {
		errs = append(errs, fmt.Errorf("max freq %v must exceed min freq %v", p.MaxFreq, p.MinFreq))
	}
	if p.MaxFreq >= nyquist {
		errs = append(errs, fmt.Errorf("max freq %v must be below nyquist %v", p.MaxFreq, nyquist))
	}
	if p.ValleyThreshold < 0 {
		errs = append(errs, fmt.Errorf("valley threshold must be >= 0, got %v", p.ValleyThreshold))
	}
	if p.ValleyStep <= 0 {
		errs = append(errs, fmt.Errorf("valley step must be > 0, got %v", p.ValleyStep))
	}
	if p.ProbThreshold < 0 {
		errs = append(errs, fmt.Errorf("prob threshold must be >= 0, got %v", p.ProbThreshold))
	}
	if p.WeightPrior <= 0 {
		errs = append(errs, fmt.Errorf("weight prior must be > 0, got %v", p.WeightPrior))
	}
	if p.Bias <= 0 {
		errs = append(errs, fmt.Errorf("bias must be > 0, got %v", p.Bias))
	}
	if p.HopSize <= 0 {
		errs = append(errs, fmt.Errorf("hop size must be > 0, got %d", p.HopSize))
	}
	if p.MaxWindowSize < p.HopSize || p.MaxWindowSize < 2 {
		errs = append(errs, fmt.Errorf("max window size %d must be >= hop size %d", p.MaxWindowSize, p.HopSize))
	}
	if p.MaxIter < 1 {
		errs = append(errs, fmt.Errorf("max iterations must be >= 1, got %d", p.MaxIter))
	}
	if len(p.Prior) == 0 {
		errs = append(errs, errors.New("prior must not be empty"))
	}
	if p.MaxInputSegment <= 0 || p.MaxInputSegment > p.HopSize {
		errs = append(errs, fmt.Errorf("max input segment must be in (0, %d], got %d", p.HopSize, p.MaxInputSegment))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidParams, errors.Join(errs...))
	}
	return nil
}

// prefilterTaps returns the kernel length of the anti-alias filter, or 0
// when prefiltering is off.
func (p Params) prefilterTaps() int {
	if !p.Prefilter {
		return 0
	}
	return fir.PrefilterTaps(p.SampleRate)
}

// PrefilterCutoff returns the streaming low-pass cutoff: four times
// MaxFreq, at least 1500 Hz, at most Nyquist.
func (p Params) PrefilterCutoff() float64 {
	return math.Min(math.Max(1500, p.MaxFreq*4), p.SampleRate/2)
}

// Delay returns the worst-case latency in samples between a sample entering
// a Processor built from p and the hop that analyses it.
func Delay(p Params) int {
	return p.MaxWindowSize/2 + p.prefilterTaps()
}
