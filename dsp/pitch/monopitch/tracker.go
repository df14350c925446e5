package monopitch

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-pitch/dsp/core"
	"github.com/cwbudde/algo-pitch/dsp/pitch/pyin"
)

// ErrMismatchedParams is returned when the PYIN and MonoPitch parameters
// describe different hop grids.
var ErrMismatchedParams = errors.New("monopitch: pyin and monopitch parameters disagree")

// Tracker runs a pyin.Processor and a Processor back to back. Hop i of the
// track is centred on input sample i*HopSize.
//
// A Tracker is not safe for concurrent use.
type Tracker struct {
	estimator *pyin.Processor
	resolver  *Processor

	hop        int
	segment    int
	candidates []pyin.Candidate

	raw      []float64 // input from absolute sample rawStart on
	rawStart int

	frame []float64
	out   []float64
	track []float64
}

// NewTracker builds both stages. monoParams must use the hop size and
// sample rate of pyinParams; ParamsFromPYin derives a matching set.
func NewTracker(pyinParams pyin.Params, monoParams Params, opts ...core.ProcessorOption) (*Tracker, error) {
	if pyinParams.HopSize != monoParams.HopSize || pyinParams.SampleRate != monoParams.SampleRate {
		return nil, fmt.Errorf("%w: hop %d/%d, sample rate %v/%v", ErrMismatchedParams,
			pyinParams.HopSize, monoParams.HopSize, pyinParams.SampleRate, monoParams.SampleRate)
	}

	estimator, err := pyin.New(pyinParams, opts...)
	if err != nil {
		return nil, err
	}
	resolver, err := New(monoParams, opts...)
	if err != nil {
		return nil, err
	}

	return &Tracker{
		estimator:  estimator,
		resolver:   resolver,
		hop:        pyinParams.HopSize,
		segment:    pyinParams.MaxInputSegment,
		candidates: make([]pyin.Candidate, pyin.MaxCandidates),
		frame:      make([]float64, 2*pyinParams.HopSize),
		out:        make([]float64, monoParams.MaxObsLength),
	}, nil
}

// Hops returns the number of hops resolved so far.
func (t *Tracker) Hops() int {
	return len(t.track)
}

// Process analyses x, which may have any length, and returns the track
// resolved so far. Recent hops are revised by later calls. The returned
// slice is owned by the Tracker and valid until the next call.
func (t *Tracker) Process(x []float64) ([]float64, error) {
	t.raw = append(t.raw, x...)

	for len(x) > 0 {
		chunk := x[:min(t.segment, len(x))]
		x = x[len(chunk):]

		n, err := t.estimator.Step(t.candidates, chunk)
		if err != nil {
			return nil, err
		}
		if n == pyin.NotReady {
			continue
		}
		if err := t.resolve(t.candidates[:n]); err != nil {
			return nil, err
		}
	}

	t.trim()
	return t.track, nil
}

// Flush drains the estimator after the last Process call and returns the
// final track, one value per input hop.
func (t *Tracker) Flush() ([]float64, error) {
	for {
		n, err := t.estimator.Step(t.candidates, nil)
		if err != nil {
			return nil, err
		}
		if n == pyin.NotReady {
			return t.track, nil
		}
		if err := t.resolve(t.candidates[:n]); err != nil {
			return nil, err
		}
	}
}

// Reset prepares the Tracker for a new stream.
func (t *Tracker) Reset() {
	t.estimator.Reset()
	t.resolver.Reset()
	t.raw = t.raw[:0]
	t.rawStart = 0
	t.track = nil
}

func (t *Tracker) resolve(candidates []pyin.Candidate) error {
	hop := len(t.track)
	begin := hop*t.hop - t.hop
	for j := range t.frame {
		idx := begin + j - t.rawStart
		if idx >= 0 && idx < len(t.raw) {
			t.frame[j] = t.raw[idx]
		} else {
			t.frame[j] = 0
		}
	}

	n, err := t.resolver.Step(t.out, t.frame, candidates)
	if err != nil {
		return err
	}

	t.track = append(t.track, 0)
	copy(t.track[len(t.track)-n:], t.out[:n])
	return nil
}

// trim drops raw input that no future frame can reach.
func (t *Tracker) trim() {
	drop := len(t.track)*t.hop - t.hop - t.rawStart
	if drop <= 0 {
		return
	}
	drop = min(drop, len(t.raw))
	t.raw = append(t.raw[:0], t.raw[drop:]...)
	t.rawStart += drop
}
