// Package conv provides linear convolution of finite real sequences.
//
// Two strategies are offered:
//
//   - Direct convolution: the explicit O(N*M) double sum, best for short outputs
//   - FFT convolution: both operands zero-padded to a fixed power-of-two size,
//     multiplied in the frequency domain and transformed back
//
// # Usage
//
// For one-shot convolution, use the simple functions:
//
//	result, err := conv.Convolve(signal, kernel) // Selects by output length
//	result, err := conv.Direct(signal, kernel)   // Force direct convolution
//
// For repeated convolution with a bounded output length, create a reusable
// convolver once and call it per block without allocating:
//
//	c, err := conv.NewFFTConvolver(512)
//	err = c.ConvolveTo(dst, signal, kernel) // len(dst) == len(signal)+len(kernel)-1 <= 512
//
// # Algorithm Selection
//
// [Convolve] uses the direct sum while the output is shorter than
// [DirectThreshold] samples and an FFT convolver otherwise.
package conv
