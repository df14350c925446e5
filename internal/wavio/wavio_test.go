package wavio

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-pitch/internal/testutil"
	"github.com/unixpickle/wav"
)

// One 16-bit quantisation step, with headroom for the library's scaling.
const pcm16Tol = 2.0 / 32767

func TestEncodeDecode(t *testing.T) {
	in := testutil.DeterministicSine(440, 8000, 0.5, 800)

	var buf bytes.Buffer
	if err := Encode(&buf, in, 8000); err != nil {
		t.Fatal(err)
	}
	a, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if a.SampleRate != 8000 || a.Channels != 1 {
		t.Fatalf("header: %d Hz, %d channels", a.SampleRate, a.Channels)
	}
	if a.Duration() != 0.1 {
		t.Fatalf("Duration = %v", a.Duration())
	}
	testutil.RequireSliceNearlyEqual(t, a.Samples, in, pcm16Tol)
}

func TestEncodeClips(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, []float64{-3, -1, 0, 1, 3}, 8000); err != nil {
		t.Fatal(err)
	}
	a, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, a.Samples, []float64{-1, -1, 0, 1, 1}, pcm16Tol)
}

func TestDecodeStereoDownmix(t *testing.T) {
	s := wav.NewPCM16Sound(2, 16000)
	s.SetSamples([]wav.Sample{0.5, 0, -0.5, -0.5, 0, 0.25})

	var buf bytes.Buffer
	if err := s.Write(&buf); err != nil {
		t.Fatal(err)
	}
	a, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if a.Channels != 2 || a.SampleRate != 16000 {
		t.Fatalf("header: %+v", a)
	}
	testutil.RequireSliceNearlyEqual(t, a.Samples, []float64{0.25, -0.5, 0.125}, pcm16Tol)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not riff", []byte("RIFX0000WAVEfmt ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrUnsupported) {
				t.Fatalf("expected ErrUnsupported, got %v", err)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := WriteFile(path, make([]float64, 160), 16000); err != nil {
		t.Fatal(err)
	}
	a, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Samples) != 160 || a.SampleRate != 16000 {
		t.Fatalf("%d samples at %d Hz, want 160 at 16000", len(a.Samples), a.SampleRate)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
