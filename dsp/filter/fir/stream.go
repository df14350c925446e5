package fir

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-pitch/dsp/conv"
	"github.com/cwbudde/algo-pitch/dsp/core"
)

// Errors returned by Stream.
var (
	ErrEmptyKernel    = errors.New("fir: empty kernel")
	ErrInvalidChunk   = errors.New("fir: invalid chunk size")
	ErrShortBuffer    = errors.New("fir: output buffer too short")
	errConvolverState = errors.New("fir: missing FFT convolver")
)

// Stream is a block FIR filter for real-time use.
//
// Each Process call convolves the new chunk with the kernel, adds the tail
// carried over from the previous call and keeps the new tail. Output is
// shifted back by len(kernel)/2 samples: the first len(kernel)/2 outputs of
// a stream are swallowed and released again by a flush (a call with empty
// input). Over a whole stream the number of emitted samples therefore equals
// the number of input samples.
type Stream struct {
	kernel   []float64
	maxChunk int
	delay    int
	delayed  int

	tail    []float64
	scratch []float64
	fft     *conv.FFTConvolver
}

// NewStream creates a streaming filter accepting chunks of up to maxChunk
// samples. The kernel is copied.
func NewStream(kernel []float64, maxChunk int) (*Stream, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}
	if maxChunk <= 0 {
		return nil, fmt.Errorf("%w: maxChunk must be > 0, got %d", ErrInvalidChunk, maxChunk)
	}

	k := len(kernel)
	s := &Stream{
		kernel:   append([]float64(nil), kernel...),
		maxChunk: maxChunk,
		delay:    k / 2,
		tail:     make([]float64, k-1),
		scratch:  make([]float64, maxChunk+k-1),
	}

	if maxLen := maxChunk + k - 1; maxLen >= conv.DirectThreshold {
		c, err := conv.NewFFTConvolver(core.NextPowerOf2(maxLen))
		if err != nil {
			return nil, fmt.Errorf("fir: %w", err)
		}
		s.fft = c
	}

	return s, nil
}

// Delay returns the worst-case latency of a Stream with a kernel of
// kernelSize taps.
func Delay(kernelSize int) int {
	return kernelSize - 1
}

// MaxOutputSize returns the largest number of samples a single Process call
// can produce for the given chunk limit and kernel length.
func MaxOutputSize(maxChunk, kernelSize int) int {
	return max(maxChunk, kernelSize/2)
}

// KernelSize returns the number of taps.
func (s *Stream) KernelSize() int {
	return len(s.kernel)
}

// MaxChunk returns the largest accepted input chunk.
func (s *Stream) MaxChunk() int {
	return s.maxChunk
}

// Delayed returns how many samples are currently held back for delay
// compensation, in [0, KernelSize()/2].
func (s *Stream) Delayed() int {
	return s.delayed
}

// NextOutputSize returns the number of samples the next Process call with
// nX input samples will write.
func (s *Stream) NextOutputSize(nX int) int {
	if nX == 0 {
		return s.delayed
	}

	pending := s.delay - s.delayed
	if nX <= pending {
		return 0
	}
	return nX - pending
}

// Process filters x and writes the released output to dst, returning the
// number of samples written. len(x) must not exceed MaxChunk; dst must hold
// at least NextOutputSize(len(x)) samples.
//
// An empty x flushes: the held-back samples are emitted and the filter
// returns to its initial state.
func (s *Stream) Process(dst, x []float64) (int, error) {
	nX := len(x)
	if nX > s.maxChunk {
		return 0, fmt.Errorf("%w: got %d samples, max %d", ErrInvalidChunk, nX, s.maxChunk)
	}
	if need := s.NextOutputSize(nX); len(dst) < need {
		return 0, fmt.Errorf("%w: got %d, need %d", ErrShortBuffer, len(dst), need)
	}

	if nX == 0 {
		return s.flush(dst), nil
	}

	k := len(s.kernel)
	out := s.scratch[:nX+k-1]
	if err := s.convolve(out, x); err != nil {
		return 0, err
	}

	for i, v := range s.tail {
		out[i] += v
	}
	copy(s.tail, out[nX:])

	if s.delayed < s.delay {
		pending := s.delay - s.delayed
		n := 0
		if nX > pending {
			n = copy(dst, out[pending:nX])
		}
		s.delayed += min(nX, pending)
		return n, nil
	}

	return copy(dst, out[:nX]), nil
}

func (s *Stream) convolve(out, x []float64) error {
	if len(out) < conv.DirectThreshold {
		return conv.DirectTo(out, x, s.kernel)
	}
	if s.fft == nil {
		return errConvolverState
	}
	return s.fft.ConvolveTo(out, x, s.kernel)
}

func (s *Stream) flush(dst []float64) int {
	if s.delayed == 0 {
		return 0
	}

	n := copy(dst, s.tail[s.delay-s.delayed:s.delay])
	core.Zero(s.tail)
	s.delayed = 0
	return n
}

// Reset discards the carried tail and the delay state.
func (s *Stream) Reset() {
	core.Zero(s.tail)
	s.delayed = 0
}
