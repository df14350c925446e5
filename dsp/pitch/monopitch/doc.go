// Package monopitch turns per-hop PYIN candidates into a continuous pitch
// track.
//
// A [Processor] quantises candidate frequencies into fractional-semitone
// bins, feeds the resulting observation through a bounded-lag Viterbi
// decoder over voiced and unvoiced copies of every bin, and maps the decoded
// path back to frequencies. Each call revises the most recent hops:
// voiced hops get a positive frequency, unvoiced hops the negated bin
// frequency, and silent hops 0.
//
// [Tracker] chains a pyin.Processor and a Processor so that arbitrary
// chunks of audio can be turned into a track directly.
package monopitch
