package yin

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-pitch/dsp/conv"
	"github.com/cwbudde/algo-pitch/dsp/filter/fir"
	"github.com/cwbudde/algo-pitch/dsp/window"
)

// RemoveDC subtracts the mean of x from every sample in place.
func RemoveDC(x []float64) {
	if len(x) == 0 {
		return
	}

	m := stat.Mean(x, nil)
	for i := range x {
		x[i] -= m
	}
}

// PrefilterCutoff returns the low-pass cutoff the batch estimator applies
// before analysis: 1.25 * maxFreq, at least 1250 Hz, at most Nyquist.
func PrefilterCutoff(maxFreq, sampleRate float64) float64 {
	return math.Min(math.Max(1250, maxFreq*1.25), sampleRate/2)
}

// Prefilter low-passes x in place with a zero-phase Blackman windowed-sinc
// kernel of fir.PrefilterTaps(sampleRate) taps. The kernel delay is removed,
// so x keeps its alignment.
func Prefilter(x []float64, maxFreq, sampleRate float64) error {
	if len(x) == 0 {
		return nil
	}

	taps := fir.PrefilterTaps(sampleRate)
	kernel, err := fir.DesignBandpass(taps, 0, PrefilterCutoff(maxFreq, sampleRate), window.TypeBlackman, true, sampleRate/2)
	if err != nil {
		return fmt.Errorf("yin: prefilter design: %w", err)
	}

	full, err := conv.Convolve(x, kernel)
	if err != nil {
		return fmt.Errorf("yin: prefilter: %w", err)
	}

	copy(x, full[taps/2:])
	return nil
}

// centredFrame copies the size samples of x centred on center into dst,
// zero-filling whatever falls outside x. The left half holds size/2 samples.
func centredFrame(dst, x []float64, center int) {
	size := len(dst)
	left := size / 2

	inBegin := min(len(x), max(center-left, 0))
	inEnd := max(0, min(center+size-left, len(x)))
	outBegin := max(left-center, 0)

	clear(dst)
	copy(dst[outBegin:], x[inBegin:inEnd])
}
