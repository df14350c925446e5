// Package hmm implements a hidden Markov model with a sparse transition list
// and Viterbi decoding over it.
//
// [Sparse] holds the model and runs single max-product steps or a full
// batch decode. [Decoder] wraps a model for streaming use: it keeps the
// current belief vector and a bounded history of backpointer rows, so a
// caller can feed one observation per hop and back-trace the most likely
// state sequence over the most recent hops at any time.
package hmm
