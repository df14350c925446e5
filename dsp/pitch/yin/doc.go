// Package yin implements the YIN fundamental-frequency estimator.
//
// The building blocks are exported separately because the streaming
// estimator in dsp/pitch/pyin runs them on its own analysis buffer:
//
//   - [DifferenceWorker] computes the squared-difference function of a
//     frame, using FFT autocorrelation for the cross term
//   - [CumulativeMeanNormalize] turns it into the cumulative mean
//     normalised difference (CMND)
//   - [FindValleys] picks candidate lags under a tightening threshold
//
// [Estimator] is the offline tracker: it frames a whole signal at a fixed
// hop and reports one frequency (or 0 for no pitch) per hop.
package yin
