package hmm

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Errors returned by the model and decoder.
var (
	ErrInvalidModel   = errors.New("hmm: invalid model")
	ErrLengthMismatch = errors.New("hmm: length mismatch")
	ErrInvalidLag     = errors.New("hmm: invalid backward length")
)

// Transition is a directed, weighted edge between two states.
type Transition struct {
	From int
	To   int
	Prob float64
}

// Sparse is a hidden Markov model whose transitions are listed explicitly.
// Transitions are expected to be grouped by source state; nothing assumes
// they are ordered by destination, and outgoing mass is not checked.
//
// A Sparse is immutable after construction and safe for concurrent use.
type Sparse struct {
	init  []float64
	trans []Transition
}

// NewSparse copies init and trans into a new model. Every transition must
// reference a state in [0, len(init)).
func NewSparse(init []float64, trans []Transition) (*Sparse, error) {
	if len(init) == 0 {
		return nil, fmt.Errorf("%w: no states", ErrInvalidModel)
	}

	nState := len(init)
	for i, t := range trans {
		if t.From < 0 || t.From >= nState || t.To < 0 || t.To >= nState {
			return nil, fmt.Errorf("%w: transition %d (%d -> %d) outside [0, %d)", ErrInvalidModel, i, t.From, t.To, nState)
		}
	}

	return &Sparse{
		init:  append([]float64(nil), init...),
		trans: append([]Transition(nil), trans...),
	}, nil
}

// NumStates returns the number of states.
func (m *Sparse) NumStates() int {
	return len(m.init)
}

// NumTransitions returns the number of edges.
func (m *Sparse) NumTransitions() int {
	return len(m.trans)
}

// Init returns a copy of the initial distribution.
func (m *Sparse) Init() []float64 {
	return append([]float64(nil), m.init...)
}

// ViterbiForwardRest runs one max-product step. For each state it writes the
// best predecessor score oldDelta[from]*prob into newDelta and the
// predecessor into psi, then multiplies newDelta by obs. Ties keep the
// earliest edge; states no edge reaches get score 0 and predecessor 0.
//
// All four slices must have NumStates elements. newDelta is not normalised.
func (m *Sparse) ViterbiForwardRest(oldDelta, obs, newDelta []float64, psi []int) error {
	n := len(m.init)
	if len(oldDelta) != n || len(obs) != n || len(newDelta) != n || len(psi) != n {
		return fmt.Errorf("%w: want %d states, got delta %d, obs %d, out %d, psi %d",
			ErrLengthMismatch, n, len(oldDelta), len(obs), len(newDelta), len(psi))
	}

	clear(newDelta)
	clear(psi)
	for _, t := range m.trans {
		if v := oldDelta[t.From] * t.Prob; v > newDelta[t.To] {
			newDelta[t.To] = v
			psi[t.To] = t.From
		}
	}

	for i, o := range obs {
		newDelta[i] *= o
	}
	return nil
}

// start writes the belief after the first observation into delta and
// normalises it. A zero-mass start is left unnormalised.
func (m *Sparse) start(delta, obs []float64) {
	for i, p := range m.init {
		delta[i] = p * obs[i]
	}
	if s := floats.Sum(delta); s > 0 {
		floats.Scale(1/s, delta)
	}
}

// normalize scales delta to unit mass and reports true, or resets it to the
// uniform distribution and reports false when its mass is zero.
func normalize(delta []float64) bool {
	if s := floats.Sum(delta); s > 0 {
		floats.Scale(1/s, delta)
		return true
	}

	u := 1 / float64(len(delta))
	for i := range delta {
		delta[i] = u
	}
	return false
}

// Decode returns the most likely state sequence for obsSeq, one state per
// observation. A single observation decodes to its own argmax. Steps whose
// belief mass collapses to zero restart from the uniform distribution.
func (m *Sparse) Decode(obsSeq [][]float64) ([]int, error) {
	n := len(m.init)
	for i, obs := range obsSeq {
		if len(obs) != n {
			return nil, fmt.Errorf("%w: observation %d has %d states, want %d", ErrLengthMismatch, i, len(obs), n)
		}
	}

	switch len(obsSeq) {
	case 0:
		return []int{}, nil
	case 1:
		return []int{floats.MaxIdx(obsSeq[0])}, nil
	}

	delta := make([]float64, n)
	next := make([]float64, n)
	psi := make([][]int, len(obsSeq))
	psi[0] = make([]int, n)

	m.start(delta, obsSeq[0])
	for t := 1; t < len(obsSeq); t++ {
		psi[t] = make([]int, n)
		if err := m.ViterbiForwardRest(delta, obsSeq[t], next, psi[t]); err != nil {
			return nil, err
		}
		normalize(next)
		delta, next = next, delta
	}

	return backtrace(make([]int, len(obsSeq)), delta, func(t int) []int { return psi[t] }), nil
}

// backtrace fills path from the argmax of delta at the last position back
// through the rows returned by row(t), which maps position t to its
// backpointers.
func backtrace(path []int, delta []float64, row func(t int) []int) []int {
	last := len(path) - 1
	path[last] = floats.MaxIdx(delta)
	for t := last - 1; t >= 0; t-- {
		path[t] = row(t + 1)[path[t+1]]
	}
	return path
}
