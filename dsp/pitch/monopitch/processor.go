package monopitch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-pitch/dsp/core"
	"github.com/cwbudde/algo-pitch/dsp/hmm"
	"github.com/cwbudde/algo-pitch/dsp/pitch/pyin"
	"github.com/cwbudde/algo-pitch/internal/observe"
)

// Errors returned by Step.
var (
	ErrInvalidFrame = errors.New("monopitch: invalid frame length")
	ErrShortOutput  = errors.New("monopitch: output buffer too short")
)

// obsFloor keeps every state reachable so the decoder does not degenerate.
const obsFloor = 1e-5

// hopRecord is the per-hop state kept for frequency resolution.
type hopRecord struct {
	candidates []pyin.Candidate
	silent     bool
}

// Processor resolves PYIN candidates into pitch with a bounded-lag HMM. It
// is not safe for concurrent use.
type Processor struct {
	params  Params
	logger  *slog.Logger
	metrics *observe.Metrics

	decoder *hmm.Decoder
	obs     []float64
	frame   []float64
	path    []int
	history []hopRecord
}

// New validates params and builds the model and decoder.
func New(params Params, opts ...core.ProcessorOption) (*Processor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	cfg := core.ApplyProcessorOptions(opts...)
	metrics, err := observe.NewMetrics(cfg.MeterProvider)
	if err != nil {
		return nil, fmt.Errorf("monopitch: metrics: %w", err)
	}

	model, err := NewModel(params)
	if err != nil {
		return nil, fmt.Errorf("monopitch: %w", err)
	}
	decoder, err := hmm.NewDecoder(model, params.MaxObsLength, opts...)
	if err != nil {
		return nil, fmt.Errorf("monopitch: %w", err)
	}

	cfg.Logger.Debug("monopitch: processor created",
		"bins", params.NumBins(),
		"transitions", model.NumTransitions(),
		"max_obs", params.MaxObsLength,
	)

	return &Processor{
		params:  params,
		logger:  cfg.Logger,
		metrics: metrics,
		decoder: decoder,
		obs:     make([]float64, model.NumStates()),
		frame:   make([]float64, 2*params.HopSize),
		path:    make([]int, params.MaxObsLength),
		history: make([]hopRecord, 0, params.MaxObsLength),
	}, nil
}

// Params returns the processor configuration.
func (p *Processor) Params() Params {
	return p.params
}

// NextOutputLength returns how many hops the next Step call will write.
func (p *Processor) NextOutputLength() int {
	return min(len(p.history)+1, p.params.MaxObsLength)
}

// Observation returns a copy of the observation vector of the last hop.
func (p *Processor) Observation() []float64 {
	return append([]float64(nil), p.obs...)
}

// Reset discards the decoder history.
func (p *Processor) Reset() {
	p.decoder.Reset()
	clear(p.obs)
	clear(p.history)
	p.history = p.history[:0]
}

// Step consumes one hop: x is the 2*HopSize frame centred on the hop and
// candidates its PYIN output. A candidate with a non-positive frequency ends
// the list. Step writes the revised pitch of the last NextOutputLength()
// hops, oldest first, into dst and returns that count. Voiced hops are
// positive, unvoiced hops negative, silent hops 0.
func (p *Processor) Step(dst, x []float64, candidates []pyin.Candidate) (int, error) {
	if len(x) != 2*p.params.HopSize {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrInvalidFrame, len(x), 2*p.params.HopSize)
	}
	n := p.NextOutputLength()
	if len(dst) < n {
		return 0, fmt.Errorf("%w: got %d, need %d", ErrShortOutput, len(dst), n)
	}

	p.observe(candidates)
	if _, err := p.decoder.Feed(p.obs); err != nil {
		return 0, fmt.Errorf("monopitch: %w", err)
	}
	decoded, err := p.decoder.Decode(p.path, n)
	if err != nil {
		return 0, fmt.Errorf("monopitch: %w", err)
	}
	if decoded != n {
		panic(fmt.Sprintf("monopitch: decoded %d hops, expected %d", decoded, n))
	}

	if len(p.history) == p.params.MaxObsLength {
		copy(p.history, p.history[1:])
		p.history = p.history[:len(p.history)-1]
	}
	p.history = append(p.history, hopRecord{
		candidates: append([]pyin.Candidate(nil), candidates...),
		silent:     p.energy(x) < p.params.EnergyThreshold,
	})

	out := dst[:n]
	for i, state := range p.path[:n] {
		out[i] = p.resolve(state, p.history[i].candidates)
	}
	p.backfill(out)
	for i := range out {
		if p.history[i].silent {
			out[i] = 0
		}
	}

	ctx := context.Background()
	p.metrics.RecordHop(ctx, observe.StageMonoPitch, len(candidates))
	if out[n-1] > 0 {
		p.metrics.VoicedHops.Add(ctx, 1)
	}
	return n, nil
}

// observe fills p.obs from the candidates of one hop. Candidates in range
// put their probability on their voiced bin; a YinTrust share of the total
// stays voiced and the rest is spread over the unvoiced states.
func (p *Processor) observe(candidates []pyin.Candidate) {
	prm := &p.params
	nBin := prm.NumBins()
	maxFreq := prm.MaxFreq()

	clear(p.obs)
	var pitched float64
	for _, c := range candidates {
		if c.Freq <= 0 {
			break
		}
		if c.Freq < prm.MinFreq || c.Freq > maxFreq {
			continue
		}
		bin := min(max(int(math.Round(prm.binPosition(c.Freq))), 0), nBin-1)
		p.obs[bin] = c.Prob
		pitched += c.Prob
	}

	trusted := prm.YinTrust * pitched
	if pitched > 0 {
		scale := trusted / pitched
		for i := range nBin {
			p.obs[i] *= scale
		}
	}

	unvoiced := (1 - trusted) / float64(nBin)
	for i := nBin; i < len(p.obs); i++ {
		p.obs[i] = unvoiced
	}
	for i, v := range p.obs {
		p.obs[i] = max(0, v) + obsFloor
	}
}

// energy returns the mean squared deviation of x from its mean.
func (p *Processor) energy(x []float64) float64 {
	copy(p.frame, x)
	floats.AddConst(-stat.Mean(x, nil), p.frame)
	return floats.Dot(p.frame, p.frame) / float64(len(p.frame))
}

// resolve maps a decoded state to a frequency. A voiced state takes the
// nearest raw candidate when it lies in range and within one bin of the
// state, otherwise the bin centre. An unvoiced state gives the negated bin
// centre.
func (p *Processor) resolve(state int, candidates []pyin.Candidate) float64 {
	prm := &p.params
	nBin := prm.NumBins()
	if state >= nBin {
		return -prm.BinFreq(state - nBin)
	}

	binFreq := prm.BinFreq(state)
	if len(candidates) == 0 {
		return binFreq
	}

	best := candidates[0].Freq
	for _, c := range candidates[1:] {
		if math.Abs(c.Freq-binFreq) < math.Abs(best-binFreq) {
			best = c.Freq
		}
	}

	if best < prm.MinFreq || best > prm.MaxFreq() || math.Abs(prm.binPosition(best)-float64(state)) > 1 {
		return binFreq
	}
	return best
}

// backfill copies the frequency of each voiced onset over the hops just
// before it whose analysis windows already reached into the voiced part.
func (p *Processor) backfill(out []float64) {
	hop := p.params.HopSize
	for i := 1; i < len(out); i++ {
		if out[i-1] > 0 || out[i] <= 0 {
			continue
		}

		window := core.NextEven(max(int(math.Ceil(p.params.SampleRate/out[i]*4)), 2*hop))
		span := int(math.Round(float64(window) / float64(2*hop)))
		for j := max(0, i-span); j < i; j++ {
			out[j] = out[i]
		}
	}
}
