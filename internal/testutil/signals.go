package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a sine wave starting at phase 0.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	return Harmonic(freqHz, sampleRate, []float64{amplitude}, length)
}

// Harmonic generates a periodic tone whose k-th partial (k from 1) sits at
// k*freqHz with amplitude amps[k-1]. Partials at or above Nyquist are
// skipped.
func Harmonic(freqHz, sampleRate float64, amps []float64, length int) []float64 {
	out := make([]float64, length)
	for k, a := range amps {
		f := float64(k+1) * freqHz
		if a == 0 || f >= sampleRate/2 {
			continue
		}
		step := 2 * math.Pi * f / sampleRate
		for i := range out {
			out[i] += a * math.Sin(step*float64(i))
		}
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Ones returns a slice of length n filled with 1.0.
func Ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
