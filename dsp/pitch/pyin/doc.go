// Package pyin implements a streaming probabilistic YIN candidate estimator.
//
// A [Processor] consumes audio in chunks of at most one hop, keeps an
// analysis buffer sized for the lowest frequency of interest, and once that
// buffer is full emits, for every hop, a list of (frequency, probability)
// candidates. The analysis window adapts to the detected period: it starts
// at four periods of MinFreq and shrinks towards four periods of the latest
// estimate over at most MaxIter passes.
//
// Candidate probabilities integrate a prior over the normalised valley
// depth, so deeper valleys weigh more; dsp/pitch/monopitch turns the
// candidate stream into a smoothed pitch track.
package pyin
