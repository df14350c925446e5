package fir

import (
	"math"
	"math/cmplx"
)

// Response evaluates the frequency response of kernel at freqHz:
//
//	H(w) = sum_k h[k] * exp(-j*w*k),  w = 2*pi*freqHz/sampleRate
func Response(kernel []float64, freqHz, sampleRate float64) complex128 {
	w := 2 * math.Pi * freqHz / sampleRate
	var h complex128
	for k, c := range kernel {
		h += complex(c, 0) * cmplx.Exp(complex(0, -w*float64(k)))
	}
	return h
}

// MagnitudeDB returns |Response| in decibels.
func MagnitudeDB(kernel []float64, freqHz, sampleRate float64) float64 {
	return 20 * math.Log10(cmplx.Abs(Response(kernel, freqHz, sampleRate)))
}
