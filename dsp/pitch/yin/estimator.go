package yin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/cwbudde/algo-pitch/dsp/core"
	"github.com/cwbudde/algo-pitch/dsp/interp"
	"github.com/cwbudde/algo-pitch/internal/observe"
)

// ErrInvalidParams is returned for parameter sets that fail validation.
var ErrInvalidParams = errors.New("yin: invalid parameters")

// maxValleys bounds the candidates examined per frame.
const maxValleys = 32

// Params configures the batch estimator.
type Params struct {
	SampleRate float64
	MinFreq    float64
	MaxFreq    float64

	// ValleyThreshold is the CMND depth a lag must undercut to count as a
	// valley; ValleyStep is how far each accepted valley lowers it.
	ValleyThreshold float64
	ValleyStep      float64

	HopSize    int
	WindowSize int

	// Prefilter enables the anti-alias low-pass before analysis.
	Prefilter bool
}

// DefaultParams returns the standard configuration for the given range:
// a hop of about 2.5 ms rounded up to a power of two and a window covering
// at least two periods of minFreq and four hops.
func DefaultParams(minFreq, maxFreq, sampleRate float64) Params {
	hop := core.NextPowerOf2(int(math.Round(sampleRate * 0.0025)))
	return Params{
		SampleRate:      sampleRate,
		MinFreq:         minFreq,
		MaxFreq:         maxFreq,
		ValleyThreshold: 0.5,
		ValleyStep:      0.01,
		HopSize:         hop,
		WindowSize:      max(core.NextPowerOf2(int(sampleRate/minFreq)*2), hop*4),
		Prefilter:       true,
	}
}

// Validate reports every invalid field at once.
func (p Params) Validate() error {
	var errs []error
	if p.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate must be > 0, got %v", p.SampleRate))
	}
	if p.MinFreq <= 0 {
		errs = append(errs, fmt.Errorf("min freq must be > 0, got %v", p.MinFreq))
	}
	if p.MaxFreq <= p.MinFreq {
		errs = append(errs, fmt.Errorf("max freq %v must exceed min freq %v", p.MaxFreq, p.MinFreq))
	}
	if p.ValleyStep <= 0 {
		errs = append(errs, fmt.Errorf("valley step must be > 0, got %v", p.ValleyStep))
	}
	if p.HopSize <= 0 {
		errs = append(errs, fmt.Errorf("hop size must be > 0, got %d", p.HopSize))
	}
	if p.WindowSize < 2 || !core.IsPowerOf2(p.WindowSize) {
		errs = append(errs, fmt.Errorf("window size must be a power of 2 >= 2, got %d", p.WindowSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidParams, errors.Join(errs...))
	}
	return nil
}

// FrameCount returns the number of hops Estimate reports for n samples.
func (p Params) FrameCount(n int) int {
	if p.HopSize <= 0 {
		return 0
	}
	return (n + p.HopSize - 1) / p.HopSize
}

// Estimator is an offline YIN pitch tracker. It reuses its scratch buffers
// across calls and is not safe for concurrent use.
type Estimator struct {
	params  Params
	logger  *slog.Logger
	metrics *observe.Metrics

	worker  *DifferenceWorker
	frame   []float64
	diff    []float64
	valleys [maxValleys]int
}

// NewEstimator validates params and allocates the analysis state.
func NewEstimator(params Params, opts ...core.ProcessorOption) (*Estimator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	worker, err := NewDifferenceWorker(params.WindowSize)
	if err != nil {
		return nil, err
	}

	cfg := core.ApplyProcessorOptions(opts...)
	metrics, err := observe.NewMetrics(cfg.MeterProvider)
	if err != nil {
		return nil, fmt.Errorf("yin: metrics: %w", err)
	}

	return &Estimator{
		params:  params,
		logger:  cfg.Logger,
		metrics: metrics,
		worker:  worker,
		frame:   make([]float64, params.WindowSize),
		diff:    make([]float64, params.WindowSize/2),
	}, nil
}

// Params returns the estimator configuration.
func (e *Estimator) Params() Params {
	return e.params
}

// Estimate returns one frequency per hop of x, in Hz, with 0 marking hops
// without a detectable pitch. Frame i is centred on sample i*HopSize. x is
// not modified.
func (e *Estimator) Estimate(x []float64, removeDC bool) ([]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidSize)
	}

	p := e.params
	px := append([]float64(nil), x...)
	if removeDC {
		RemoveDC(px)
	}
	if p.Prefilter {
		if err := Prefilter(px, p.MaxFreq, p.SampleRate); err != nil {
			return nil, err
		}
	}

	ctx := context.Background()
	out := make([]float64, p.FrameCount(len(px)))
	voiced := 0
	for i := range out {
		centredFrame(e.frame, px, i*p.HopSize)
		if err := e.worker.Difference(e.diff, e.frame); err != nil {
			return nil, err
		}
		CumulativeMeanNormalize(e.diff)

		n := FindValleys(e.valleys[:], e.diff, p.MinFreq, p.MaxFreq, p.SampleRate, p.ValleyThreshold, p.ValleyStep)
		e.metrics.RecordHop(ctx, observe.StageYin, n)
		if n == 0 {
			continue
		}

		lag, _ := interp.Parabolic(e.diff, e.valleys[n-1], false)
		out[i] = p.SampleRate / lag
		voiced++
	}
	e.metrics.VoicedHops.Add(ctx, int64(voiced))

	e.logger.Debug("yin: estimated", "samples", len(x), "frames", len(out), "voiced", voiced)
	return out, nil
}

// Estimate is a convenience wrapper running a one-off Estimator.
func Estimate(params Params, x []float64, removeDC bool) ([]float64, error) {
	e, err := NewEstimator(params)
	if err != nil {
		return nil, err
	}
	return e.Estimate(x, removeDC)
}
