package pyin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-pitch/dsp/core"
	"github.com/cwbudde/algo-pitch/dsp/filter/fir"
	"github.com/cwbudde/algo-pitch/dsp/interp"
	"github.com/cwbudde/algo-pitch/dsp/pitch/yin"
	"github.com/cwbudde/algo-pitch/dsp/window"
	"github.com/cwbudde/algo-pitch/internal/observe"
)

// Errors returned by Step.
var (
	ErrInvalidChunk  = errors.New("pyin: invalid input chunk")
	ErrInvalidOutput = errors.New("pyin: invalid candidate buffer")
)

const (
	// MaxCandidates is the largest candidate buffer Step accepts.
	MaxCandidates = 128

	// NotReady is returned by Step while the analysis buffer is filling.
	NotReady = -1

	// maxValleys bounds the valleys searched per refinement pass.
	maxValleys = 127

	// depthFloor keeps neighbouring valley depths from collapsing the
	// integration interval.
	depthFloor = 1e-10
)

// Candidate is one pitch hypothesis for a hop.
type Candidate struct {
	Freq float64 // Hz
	Prob float64
}

// Processor is a streaming PYIN candidate estimator. It is not safe for
// concurrent use.
type Processor struct {
	params  Params
	logger  *slog.Logger
	metrics *observe.Metrics

	filter *fir.Stream
	worker *yin.DifferenceWorker

	buffer          []float64
	bufferUsed      int
	internalDelayed int

	diff    []float64
	valleys [maxValleys]int
}

// New validates params and builds a Processor. The prior is copied.
func New(params Params, opts ...core.ProcessorOption) (*Processor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	params.Prior = append([]float64(nil), params.Prior...)

	cfg := core.ApplyProcessorOptions(opts...)
	metrics, err := observe.NewMetrics(cfg.MeterProvider)
	if err != nil {
		return nil, fmt.Errorf("pyin: metrics: %w", err)
	}

	p := &Processor{
		params:  params,
		logger:  cfg.Logger,
		metrics: metrics,
	}

	taps := params.prefilterTaps()
	if params.Prefilter {
		kernel, err := fir.DesignBandpass(taps, 0, params.PrefilterCutoff(), window.TypeBlackman, true, params.SampleRate/2)
		if err != nil {
			return nil, fmt.Errorf("pyin: prefilter design: %w", err)
		}
		if p.filter, err = fir.NewStream(kernel, params.MaxInputSegment); err != nil {
			return nil, fmt.Errorf("pyin: prefilter: %w", err)
		}
	}

	if p.worker, err = yin.NewDifferenceWorker(core.NextPowerOf2(params.MaxWindowSize)); err != nil {
		return nil, fmt.Errorf("pyin: %w", err)
	}

	slack := max(params.HopSize, params.MaxInputSegment, fir.MaxOutputSize(params.MaxInputSegment, max(taps, 1)))
	p.buffer = make([]float64, params.MaxWindowSize+slack)
	p.diff = make([]float64, params.MaxWindowSize/2)
	p.bufferUsed = params.MaxWindowSize / 2

	p.logger.Debug("pyin: processor created",
		"sample_rate", params.SampleRate,
		"hop", params.HopSize,
		"max_window", params.MaxWindowSize,
		"prefilter_taps", taps,
	)
	return p, nil
}

// Params returns a copy of the processor configuration.
func (p *Processor) Params() Params {
	out := p.params
	out.Prior = append([]float64(nil), p.params.Prior...)
	return out
}

// BufferUsed returns the number of valid samples in the analysis buffer.
func (p *Processor) BufferUsed() int {
	return p.bufferUsed
}

// Delayed returns the number of input samples accepted but not yet covered
// by an emitted hop, including those held by the prefilter.
func (p *Processor) Delayed() int {
	if p.filter != nil {
		return p.internalDelayed + p.filter.Delayed()
	}
	return p.internalDelayed
}

// Reset returns the processor to its freshly constructed state.
func (p *Processor) Reset() {
	if p.filter != nil {
		p.filter.Reset()
	}
	clear(p.buffer)
	p.bufferUsed = p.params.MaxWindowSize / 2
	p.internalDelayed = 0
}

// Step appends x (at most MaxInputSegment samples) to the analysis buffer
// and, once a full window is available, analyses one hop and writes its
// candidates to dst. It returns the number of candidates, or NotReady while
// the buffer is still filling.
//
// Call Step with an empty x after the last chunk to drain the stream. The
// first empty call flushes the prefilter and later ones pad with a hop of
// silence; every empty call that still has unanalysed input yields a hop,
// and NotReady signals that the stream is drained.
func (p *Processor) Step(dst []Candidate, x []float64) (int, error) {
	if len(dst) == 0 || len(dst) > MaxCandidates {
		return 0, fmt.Errorf("%w: length %d not in (0, %d]", ErrInvalidOutput, len(dst), MaxCandidates)
	}
	if len(x) > p.params.MaxInputSegment {
		return 0, fmt.Errorf("%w: got %d samples, max %d", ErrInvalidChunk, len(x), p.params.MaxInputSegment)
	}

	appended, err := p.append(x)
	if err != nil {
		return 0, err
	}

	hop := p.params.HopSize
	maxWS := p.params.MaxWindowSize
	p.internalDelayed += appended
	p.bufferUsed += appended

	if len(x) == 0 {
		if p.internalDelayed <= 0 {
			return NotReady, nil
		}
		fill := maxWS
		if appended == 0 {
			fill = max(p.bufferUsed+hop, maxWS)
		}
		if fill > p.bufferUsed {
			clear(p.buffer[p.bufferUsed:fill])
			p.bufferUsed = fill
		}
	}
	if p.bufferUsed < maxWS {
		return NotReady, nil
	}

	n, err := p.analyse(dst)
	if err != nil {
		return 0, err
	}

	p.bufferUsed = core.Discard(p.buffer, p.bufferUsed, hop)
	p.internalDelayed -= hop

	p.metrics.RecordHop(context.Background(), observe.StagePYin, n)
	return n, nil
}

func (p *Processor) append(x []float64) (int, error) {
	tail := p.buffer[p.bufferUsed:]
	if p.filter == nil {
		return copy(tail, x), nil
	}

	n, err := p.filter.Process(tail, x)
	if err != nil {
		return 0, fmt.Errorf("pyin: prefilter: %w", err)
	}
	return n, nil
}

// analyse runs the window refinement loop on the current buffer and turns
// the valleys of the final pass into candidates.
func (p *Processor) analyse(dst []Candidate) (int, error) {
	prm := &p.params
	sr := prm.SampleRate
	limit := prm.MaxWindowSize &^ 1

	windowSize := 0
	next := min(max(ceilPowerOf2(sr/prm.MinFreq*4), 2*prm.HopSize), limit)
	nValley := 0

	for iter := 0; next != windowSize && iter < prm.MaxIter; {
		windowSize = next
		offset := (prm.MaxWindowSize - windowSize) / 2
		d := p.diff[:windowSize/2]

		if err := p.worker.Difference(d, p.buffer[offset:offset+windowSize]); err != nil {
			return 0, fmt.Errorf("pyin: %w", err)
		}
		yin.CumulativeMeanNormalize(d)

		nValley = yin.FindValleys(p.valleys[:], d, prm.MinFreq, prm.MaxFreq, sr, prm.ValleyThreshold, prm.ValleyStep)
		if nValley > 0 {
			f := core.Clamp(sr/float64(p.valleys[nValley-1])-20, prm.MinFreq, prm.MaxFreq)
			next = min(core.NextEven(max(int(math.Ceil(sr/f*4)), 2*prm.HopSize)), limit)
			iter++
		}
	}

	n := min(nValley, len(dst))
	p.probabilities(dst[:n], p.diff[:windowSize/2], p.valleys[:n])
	return n, nil
}

// probabilities integrates the prior between the depths of neighbouring
// valleys. Prior mass at depths the candidate undercuts counts fully, the
// rest at 1%.
func (p *Processor) probabilities(dst []Candidate, d []float64, valleys []int) {
	prm := &p.params
	size := len(prm.Prior)
	last := len(valleys) - 1

	var total, weighted float64
	for i, lag := range valleys {
		pos, depth := interp.Parabolic(d, lag, false)

		upper := 1.0
		if i > 0 {
			upper = math.Min(1, d[valleys[i-1]]+depthFloor)
		}
		lower := 0.0
		if i < last {
			lower = math.Max(0, d[valleys[i+1]]) + depthFloor
		}

		// Prior bins above the refined depth start at k.
		var prob float64
		lo, hi := int(lower*float64(size)), int(upper*float64(size))
		if lo < hi {
			k := min(max(int(math.Floor(depth*float64(size)))+1, lo), hi)
			prob = 0.01*floats.Sum(prm.Prior[lo:k]) + floats.Sum(prm.Prior[k:hi])
		}

		prob = math.Min(prob, 0.99) * prm.Bias
		total += prob
		if depth < prm.ProbThreshold {
			prob *= prm.WeightPrior
		}
		weighted += prob

		dst[i] = Candidate{Freq: prm.SampleRate / pos, Prob: prob}
	}

	if weighted == 0 {
		return
	}
	scale := total / weighted
	for i := range dst {
		dst[i].Prob *= scale
	}
}
