package monopitch

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-pitch/dsp/hmm"
)

// NewModel builds the pitch HMM for p. States [0, NumBins) are voiced bins,
// [NumBins, 2*NumBins) their unvoiced twins. Every bin connects to the bins
// within half the maximum transition width, weighted by a triangle peaking
// at the bin itself, and splits that weight between staying in its voicing
// class (TransSelf) and switching (1 - TransSelf). The initial distribution
// is uniform.
func NewModel(p Params) (*hmm.Sparse, error) {
	nBin := p.NumBins()
	half := int(math.Round(p.MaxTransSemitone * float64(p.BinPerSemitone) / 2))
	nState := 2 * nBin

	init := make([]float64, nState)
	for i := range init {
		init[i] = 1 / float64(nState)
	}

	trans := make([]hmm.Transition, 0, 4*(nBin*(2*half+1)-half*(half+1)))
	weights := make([]float64, 0, 2*half+1)
	for bin := range nBin {
		lo := max(bin-half, 0)
		hi := min(bin+half, nBin-1)

		weights = weights[:0]
		for to := lo; to <= hi; to++ {
			weights = append(weights, float64(half+1-abs(to-bin)))
		}
		floats.Scale(1/floats.Sum(weights), weights)

		for j, w := range weights {
			to := lo + j
			stay, change := w*p.TransSelf, w*(1-p.TransSelf)
			trans = append(trans,
				hmm.Transition{From: bin, To: to, Prob: stay},
				hmm.Transition{From: bin, To: to + nBin, Prob: change},
				hmm.Transition{From: bin + nBin, To: to + nBin, Prob: stay},
				hmm.Transition{From: bin + nBin, To: to, Prob: change},
			)
		}
	}

	return hmm.NewSparse(init, trans)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
