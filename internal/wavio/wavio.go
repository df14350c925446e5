// Package wavio reads WAV files as mono float64 samples and writes mono
// 16-bit PCM WAV files.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/unixpickle/wav"
)

// ErrUnsupported is returned for streams the decoder cannot turn into
// audio, including headers with no channels or no sample rate.
var ErrUnsupported = errors.New("wavio: unsupported wav")

// Audio is decoded, downmixed audio.
type Audio struct {
	SampleRate int
	Channels   int // channel count of the source file
	Samples    []float64
}

// Duration returns the length of the audio in seconds.
func (a *Audio) Duration() float64 {
	if a.SampleRate == 0 {
		return 0
	}
	return float64(len(a.Samples)) / float64(a.SampleRate)
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (*Audio, error) {
	s, err := wav.ReadSoundFile(path)
	if err != nil {
		return nil, fmt.Errorf("wavio: %s: %w", path, err)
	}
	a, err := fromSound(s)
	if err != nil {
		return nil, fmt.Errorf("wavio: %s: %w", path, err)
	}
	return a, nil
}

// Decode reads a WAV stream from r and averages all channels into one.
func Decode(r io.Reader) (*Audio, error) {
	s, err := wav.ReadSound(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	return fromSound(s)
}

func fromSound(s wav.Sound) (*Audio, error) {
	nch, sr := s.Channels(), s.SampleRate()
	if nch <= 0 || sr <= 0 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupported, nch, sr)
	}

	interleaved := s.Samples()
	samples := make([]float64, len(interleaved)/nch)
	scale := 1 / float64(nch)
	for i := range samples {
		var sum float64
		for _, v := range interleaved[i*nch : (i+1)*nch] {
			sum += float64(v)
		}
		samples[i] = sum * scale
	}

	return &Audio{SampleRate: sr, Channels: nch, Samples: samples}, nil
}

// Encode writes samples in [-1, 1] to w as a mono 16-bit PCM WAV stream.
// Values outside that range are clipped.
func Encode(w io.Writer, samples []float64, sampleRate int) error {
	if err := pcm16(samples, sampleRate).Write(w); err != nil {
		return fmt.Errorf("wavio: %w", err)
	}
	return nil
}

// WriteFile writes samples to path the way Encode does.
func WriteFile(path string, samples []float64, sampleRate int) error {
	if err := wav.WriteFile(pcm16(samples, sampleRate), path); err != nil {
		return fmt.Errorf("wavio: %w", err)
	}
	return nil
}

func pcm16(samples []float64, sampleRate int) wav.Sound {
	s := wav.NewPCM16Sound(1, sampleRate)
	out := make([]wav.Sample, len(samples))
	for i, v := range samples {
		out[i] = wav.Sample(math.Max(-1, math.Min(1, v)))
	}
	s.SetSamples(out)
	return s
}
