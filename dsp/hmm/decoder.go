package hmm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-pitch/dsp/core"
	"github.com/cwbudde/algo-pitch/internal/observe"
)

// Decoder is a bounded-lag Viterbi decoder. It keeps the belief vector of
// the newest hop and at most nMaxBackward rows of backpointers; feeding a
// hop when the history is full discards the oldest row.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	model        *Sparse
	nMaxBackward int

	delta []float64
	temp  []float64
	psi   []int // nMaxBackward rows of NumStates entries
	used  int

	logger  *slog.Logger
	metrics *observe.Metrics
}

// NewDecoder creates a decoder over model that remembers up to nMaxBackward
// hops.
func NewDecoder(model *Sparse, nMaxBackward int, opts ...core.ProcessorOption) (*Decoder, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", ErrInvalidModel)
	}
	if nMaxBackward <= 0 {
		return nil, fmt.Errorf("%w: nMaxBackward must be > 0, got %d", ErrInvalidLag, nMaxBackward)
	}

	cfg := core.ApplyProcessorOptions(opts...)
	metrics, err := observe.NewMetrics(cfg.MeterProvider)
	if err != nil {
		return nil, fmt.Errorf("hmm: metrics: %w", err)
	}

	n := model.NumStates()
	return &Decoder{
		model:        model,
		nMaxBackward: nMaxBackward,
		delta:        make([]float64, n),
		temp:         make([]float64, n),
		psi:          make([]int, nMaxBackward*n),
		logger:       cfg.Logger,
		metrics:      metrics,
	}, nil
}

// Model returns the decoded model.
func (d *Decoder) Model() *Sparse {
	return d.model
}

// MaxBackward returns the history capacity in hops.
func (d *Decoder) MaxBackward() int {
	return d.nMaxBackward
}

// Available returns the number of hops in the history.
func (d *Decoder) Available() int {
	return d.used
}

// Belief returns a copy of the current belief vector.
func (d *Decoder) Belief() []float64 {
	return append([]float64(nil), d.delta...)
}

// Reset empties the history.
func (d *Decoder) Reset() {
	clear(d.delta)
	clear(d.psi)
	d.used = 0
}

func (d *Decoder) row(i int) []int {
	n := len(d.delta)
	return d.psi[i*n : (i+1)*n]
}

// Feed advances the decoder by one observation of NumStates likelihoods.
//
// It returns false when the belief mass collapsed to zero. The hop is still
// recorded, the belief restarts from the uniform distribution, and feeding
// may continue normally.
func (d *Decoder) Feed(obs []float64) (bool, error) {
	n := len(d.delta)
	if len(obs) != n {
		return false, fmt.Errorf("%w: observation has %d states, want %d", ErrLengthMismatch, len(obs), n)
	}

	if d.used == 0 {
		d.model.start(d.delta, obs)
		clear(d.row(0))
		d.used = 1
		return true, nil
	}

	if d.used == d.nMaxBackward {
		copy(d.psi, d.psi[n:])
		d.used--
	}

	if err := d.model.ViterbiForwardRest(d.delta, obs, d.temp, d.row(d.used)); err != nil {
		return false, err
	}
	d.used++
	d.delta, d.temp = d.temp, d.delta

	if normalize(d.delta) {
		return true, nil
	}

	d.logger.Warn("hmm: decoder fed zero probabilities, belief reset to uniform",
		"states", n,
		"history", d.used,
	)
	d.metrics.DecoderDegenerate.Add(context.Background(), 1)
	return false, nil
}

// Decode back-traces from the most likely current state and writes the
// state sequence of the last nBackward hops into dst in chronological
// order. nBackward must be in (0, MaxBackward()] and is clamped to
// Available(); the number of states written is returned. Decode does not
// change the decoder.
func (d *Decoder) Decode(dst []int, nBackward int) (int, error) {
	if nBackward <= 0 || nBackward > d.nMaxBackward {
		return 0, fmt.Errorf("%w: %d not in (0, %d]", ErrInvalidLag, nBackward, d.nMaxBackward)
	}

	nBackward = min(nBackward, d.used)
	if nBackward == 0 {
		return 0, nil
	}
	if len(dst) < nBackward {
		return 0, fmt.Errorf("%w: dst has %d entries, need %d", ErrLengthMismatch, len(dst), nBackward)
	}

	// Row i of the output pairs with history row used-nBackward+i.
	offset := d.used - nBackward
	backtrace(dst[:nBackward], d.delta, func(t int) []int { return d.row(offset + t) })
	return nBackward, nil
}
