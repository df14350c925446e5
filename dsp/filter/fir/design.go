package fir

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-pitch/dsp/window"
)

// ErrInvalidDesign is returned by DesignBandpass for unrealisable requests.
var ErrInvalidDesign = errors.New("fir: invalid filter design")

// DesignBandpass returns a numTaps-tap linear-phase kernel passing
// [passBegin, passEnd] Hz, built as the difference of two ideal low-pass
// impulse responses tapered by win. A passBegin of 0 gives a low-pass.
//
// With scale set, the kernel is normalised to unit gain at a reference
// frequency: DC for a low-pass, Nyquist when the band reaches it, and
// otherwise half the normalised upper edge.
//
// An even numTaps cannot pass Nyquist, so passEnd == nyquist is only
// accepted for odd lengths.
func DesignBandpass(numTaps int, passBegin, passEnd float64, win window.Type, scale bool, nyquist float64) ([]float64, error) {
	switch {
	case numTaps <= 0:
		return nil, fmt.Errorf("%w: numTaps must be > 0, got %d", ErrInvalidDesign, numTaps)
	case nyquist <= 0:
		return nil, fmt.Errorf("%w: nyquist must be > 0, got %f", ErrInvalidDesign, nyquist)
	case passBegin < 0 || passBegin > passEnd:
		return nil, fmt.Errorf("%w: band [%f, %f] Hz", ErrInvalidDesign, passBegin, passEnd)
	case passEnd > nyquist:
		return nil, fmt.Errorf("%w: passEnd %f above nyquist %f", ErrInvalidDesign, passEnd, nyquist)
	case numTaps%2 == 0 && math.Abs(passEnd-nyquist) <= 1e-32:
		return nil, fmt.Errorf("%w: even-length kernel must have zero response at nyquist", ErrInvalidDesign)
	}

	lo := passBegin / nyquist
	hi := passEnd / nyquist
	alpha := 0.5 * float64(numTaps-1)

	h := make([]float64, numTaps)
	for i := range h {
		m := float64(i) - alpha
		h[i] = hi*sinc(hi*m) - lo*sinc(lo*m)
	}

	vecmath.MulBlockInPlace(h, window.Generate(win, numTaps))

	if !scale {
		return h, nil
	}

	// The mid-band reference deliberately uses only the upper edge.
	var f float64
	switch {
	case lo == 0:
		f = 0
	case hi == 1:
		f = 1
	default:
		f = 0.5 * hi
	}
	f *= math.Pi

	var gain float64
	for i, v := range h {
		gain += math.Cos(f*(float64(i)-alpha)) * v
	}
	if gain == 0 {
		return nil, fmt.Errorf("%w: zero gain at reference frequency", ErrInvalidDesign)
	}

	for i := range h {
		h[i] /= gain
	}

	return h, nil
}

// PrefilterTaps returns the odd kernel length used by the pitch estimators'
// anti-alias low-pass: 2048 taps at 44.1 kHz, scaled with the sample rate.
func PrefilterTaps(sampleRate float64) int {
	n := int(2048 * sampleRate / 44100)
	if n%2 == 0 {
		n++
	}
	return n
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}

	px := math.Pi * x

	return math.Sin(px) / px
}
