package pyin

import (
	"errors"
	"math"
	"testing"
)

func TestNormalizedBetaPrior(t *testing.T) {
	prior := NormalizedBetaPrior(DefaultPriorA, DefaultPriorB, DefaultPriorSize)
	if len(prior) != DefaultPriorSize {
		t.Fatalf("len = %d, want %d", len(prior), DefaultPriorSize)
	}

	var sum float64
	for i, v := range prior {
		if v < 0 || math.IsNaN(v) {
			t.Fatalf("prior[%d] = %v", i, v)
		}
		if i > 0 && v > prior[i-1] {
			t.Fatalf("prior increases at %d: %v > %v", i, v, prior[i-1])
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("sum = %v, want 1", sum)
	}

	// The zero at depth 0 is lifted to the mode by the running maximum.
	if prior[0] != prior[1] || prior[0] == 0 {
		t.Fatalf("prior[0] = %v, prior[1] = %v", prior[0], prior[1])
	}

	if NormalizedBetaPrior(2, 2, 0) != nil {
		t.Fatal("expected nil for n = 0")
	}
}

func TestDefaultParams(t *testing.T) {
	tests := []struct {
		sr        float64
		minFreq   float64
		hop       int
		maxWindow int
	}{
		{44100, 80, 128, 4096},
		{16000, 80, 64, 1024},
		{8000, 60, 32, 1024},
	}

	for _, tt := range tests {
		p := DefaultParams(tt.minFreq, 1000, tt.sr, nil)
		if p.HopSize != tt.hop {
			t.Errorf("sr %v: HopSize = %d, want %d", tt.sr, p.HopSize, tt.hop)
		}
		if p.MaxWindowSize != tt.maxWindow {
			t.Errorf("sr %v: MaxWindowSize = %d, want %d", tt.sr, p.MaxWindowSize, tt.maxWindow)
		}
		if p.MaxInputSegment != p.HopSize {
			t.Errorf("sr %v: MaxInputSegment = %d, want hop", tt.sr, p.MaxInputSegment)
		}
		if len(p.Prior) != DefaultPriorSize {
			t.Errorf("sr %v: prior length %d", tt.sr, len(p.Prior))
		}
		if tt.sr > 2000 {
			if err := p.Validate(); err != nil {
				t.Errorf("sr %v: %v", tt.sr, err)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
	}{
		{"sample rate", func(p *Params) { p.SampleRate = 0 }},
		{"min freq", func(p *Params) { p.MinFreq = -1 }},
		{"max below min", func(p *Params) { p.MaxFreq = 10 }},
		{"max above nyquist", func(p *Params) { p.MaxFreq = 9000 }},
		{"valley step", func(p *Params) { p.ValleyStep = 0 }},
		{"weight prior", func(p *Params) { p.WeightPrior = 0 }},
		{"bias", func(p *Params) { p.Bias = 0 }},
		{"hop", func(p *Params) { p.HopSize = 0 }},
		{"window below hop", func(p *Params) { p.MaxWindowSize = 32 }},
		{"iterations", func(p *Params) { p.MaxIter = 0 }},
		{"empty prior", func(p *Params) { p.Prior = nil }},
		{"segment above hop", func(p *Params) { p.MaxInputSegment = p.HopSize + 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams(80, 1000, 16000, nil)
			tt.modify(&p)
			if err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
				t.Fatalf("Validate() = %v, want ErrInvalidParams", err)
			}
			if _, err := New(p); !errors.Is(err, ErrInvalidParams) {
				t.Fatalf("New() = %v, want ErrInvalidParams", err)
			}
		})
	}
}

func TestPrefilterCutoff(t *testing.T) {
	tests := []struct {
		maxFreq, sr, want float64
	}{
		{200, 44100, 1500},
		{1000, 44100, 4000},
		{1000, 6000, 3000},
	}
	for _, tt := range tests {
		p := DefaultParams(80, tt.maxFreq, tt.sr, nil)
		if got := p.PrefilterCutoff(); got != tt.want {
			t.Errorf("PrefilterCutoff(%v, %v) = %v, want %v", tt.maxFreq, tt.sr, got, tt.want)
		}
	}
}

func TestDelay(t *testing.T) {
	p := DefaultParams(80, 1000, 16000, nil)
	if got, want := Delay(p), 512+743; got != want {
		t.Fatalf("Delay = %d, want %d", got, want)
	}
	p.Prefilter = false
	if got := Delay(p); got != 512 {
		t.Fatalf("Delay without prefilter = %d, want 512", got)
	}
}
