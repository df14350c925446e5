// Package fir provides FIR filter design and a streaming runtime.
//
// [DesignBandpass] builds windowed-sinc single-band kernels.
//
// A [Stream] filters arbitrarily chunked input block by block, carrying the
// convolution tail between calls and compensating the kernel's group delay
// (len(kernel)/2 samples), so that after a final flush the output lines up
// sample-for-sample with the input. Long kernels run through an FFT
// convolver from dsp/conv.
//
// [Response] and [MagnitudeDB] evaluate a kernel's frequency response.
package fir
