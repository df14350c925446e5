package monopitch

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-pitch/dsp/pitch/pyin"
)

// ErrInvalidParams is returned for parameter sets that fail validation.
var ErrInvalidParams = errors.New("monopitch: invalid parameters")

// Params configures a Processor.
type Params struct {
	SampleRate float64
	HopSize    int

	// MinFreq is the centre of the lowest bin; the range spans NSemitone
	// semitones above it.
	MinFreq   float64
	NSemitone int

	// BinPerSemitone sets the pitch resolution of the model.
	BinPerSemitone int

	// MaxTransSemitone is the widest pitch jump allowed between hops.
	MaxTransSemitone float64

	// TransSelf is the probability of keeping the voicing class between hops.
	TransSelf float64

	// YinTrust is the share of candidate probability mass treated as voiced.
	YinTrust float64

	// EnergyThreshold is the mean squared deviation below which a hop's
	// frame counts as silent.
	EnergyThreshold float64

	// MaxObsLength bounds the decoder history and the revised output length.
	MaxObsLength int
}

// DefaultParams returns the standard configuration for the given hop and
// pitch range.
func DefaultParams(hopSize int, sampleRate float64, nSemitone int, maxTransSemitone, minFreq float64) Params {
	return Params{
		SampleRate:       sampleRate,
		HopSize:          hopSize,
		MinFreq:          minFreq,
		NSemitone:        nSemitone,
		BinPerSemitone:   5,
		MaxTransSemitone: maxTransSemitone,
		TransSelf:        0.999,
		YinTrust:         0.5,
		EnergyThreshold:  1e-8,
		MaxObsLength:     128,
	}
}

// ParamsFromPYin derives a configuration matching a PYIN processor: same hop
// and range, with the transition width scaled from three semitones per
// 256 samples at 44.1 kHz.
func ParamsFromPYin(p pyin.Params) Params {
	nSemitone := int(math.Ceil(math.Log2(p.MaxFreq/p.MinFreq) * 12))
	maxTrans := (float64(p.HopSize) / p.SampleRate) / (256.0 / 44100.0) * 3
	return DefaultParams(p.HopSize, p.SampleRate, nSemitone, maxTrans, p.MinFreq)
}

// Validate reports every invalid field at once.
func (p Params) Validate() error {
	var errs []error

	if p.HopSize <= 0 {
		errs = append(errs, fmt.Errorf("hop size must be > 0, got %d", p.HopSize))
	}
	if p.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate must be > 0, got %v", p.SampleRate))
	}
	if p.NSemitone <= 0 {
		errs = append(errs, fmt.Errorf("semitone count must be > 0, got %d", p.NSemitone))
	}
	if p.MaxTransSemitone <= 0 {
		errs = append(errs, fmt.Errorf("max transition must be > 0, got %v", p.MaxTransSemitone))
	}
	if p.MinFreq <= 0 || p.MinFreq >= p.SampleRate/2 {
		errs = append(errs, fmt.Errorf("min freq must be in (0, %v), got %v", p.SampleRate/2, p.MinFreq))
	}
	if p.BinPerSemitone <= 0 {
		errs = append(errs, fmt.Errorf("bins per semitone must be > 0, got %d", p.BinPerSemitone))
	}
	if p.TransSelf < 0 || p.TransSelf > 1 {
		errs = append(errs, fmt.Errorf("self transition must be in [0, 1], got %v", p.TransSelf))
	}
	if p.YinTrust < 0 || p.YinTrust > 1 {
		errs = append(errs, fmt.Errorf("yin trust must be in [0, 1], got %v", p.YinTrust))
	}
	if p.EnergyThreshold < 0 {
		errs = append(errs, fmt.Errorf("energy threshold must be >= 0, got %v", p.EnergyThreshold))
	}
	if p.MaxObsLength <= 0 {
		errs = append(errs, fmt.Errorf("max observation length must be > 0, got %d", p.MaxObsLength))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidParams, errors.Join(errs...))
	}
	return nil
}

// NumBins returns the number of pitch bins per voicing class.
func (p Params) NumBins() int {
	return p.NSemitone * p.BinPerSemitone
}

// MaxFreq returns the frequency of the top of the modelled range.
func (p Params) MaxFreq() float64 {
	return p.MinFreq * math.Exp2(float64(p.NSemitone)/12)
}

// BinFreq returns the centre frequency of pitch bin i.
func (p Params) BinFreq(i int) float64 {
	return p.MinFreq * math.Exp2(float64(i)/float64(12*p.BinPerSemitone))
}

// binPosition returns the fractional bin index of freq.
func (p Params) binPosition(freq float64) float64 {
	return math.Log2(freq/p.MinFreq) * 12 * float64(p.BinPerSemitone)
}
