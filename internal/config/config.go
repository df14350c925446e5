// Package config defines the configuration of the pitchtrack command and
// maps it onto the processor parameter sets.
package config

import (
	"log/slog"

	"github.com/cwbudde/algo-pitch/dsp/pitch/monopitch"
	"github.com/cwbudde/algo-pitch/dsp/pitch/pyin"
	"github.com/cwbudde/algo-pitch/dsp/pitch/yin"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level returns the slog level for l. Unknown values map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Mode selects the analysis pipeline.
type Mode string

const (
	// ModeBatch runs offline YIN over the whole file.
	ModeBatch Mode = "batch"

	// ModeStream runs streaming PYIN with HMM smoothing.
	ModeStream Mode = "stream"
)

// IsValid reports whether m is a recognised mode.
func (m Mode) IsValid() bool {
	return m == ModeBatch || m == ModeStream
}

// Config is the root configuration.
type Config struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// Mode selects batch or streaming analysis.
	Mode Mode `yaml:"mode"`

	// Workers bounds the number of files analysed concurrently. Zero means
	// one per CPU.
	Workers int `yaml:"workers"`

	// Metrics prints the collected counters after the run.
	Metrics bool `yaml:"metrics"`

	Pitch     PitchConfig     `yaml:"pitch"`
	YIN       YINConfig       `yaml:"yin"`
	PYin      PYinConfig      `yaml:"pyin"`
	MonoPitch MonoPitchConfig `yaml:"monopitch"`
}

// PitchConfig holds the settings shared by both modes.
type PitchConfig struct {
	MinFreq   float64 `yaml:"min_freq"`
	MaxFreq   float64 `yaml:"max_freq"`
	Prefilter bool    `yaml:"prefilter"`
}

// YINConfig tunes batch analysis.
type YINConfig struct {
	ValleyThreshold float64 `yaml:"valley_threshold"`
	ValleyStep      float64 `yaml:"valley_step"`

	// RemoveDC subtracts the signal mean before analysis.
	RemoveDC bool `yaml:"remove_dc"`
}

// PYinConfig tunes the streaming candidate estimator.
type PYinConfig struct {
	ValleyThreshold float64 `yaml:"valley_threshold"`
	ValleyStep      float64 `yaml:"valley_step"`
	ProbThreshold   float64 `yaml:"prob_threshold"`
	WeightPrior     float64 `yaml:"weight_prior"`
	Bias            float64 `yaml:"bias"`
	MaxIter         int     `yaml:"max_iter"`
}

// MonoPitchConfig tunes the HMM smoother.
type MonoPitchConfig struct {
	BinPerSemitone  int     `yaml:"bin_per_semitone"`
	TransSelf       float64 `yaml:"trans_self"`
	YinTrust        float64 `yaml:"yin_trust"`
	EnergyThreshold float64 `yaml:"energy_threshold"`
	MaxObsLength    int     `yaml:"max_obs_length"`
}

// Default returns the configuration used when no file is given. Fields
// absent from a loaded file keep these values.
func Default() *Config {
	const minFreq, maxFreq = 80, 1000

	yp := yin.DefaultParams(minFreq, maxFreq, 44100)
	pp := pyin.DefaultParams(minFreq, maxFreq, 44100, nil)
	mp := monopitch.ParamsFromPYin(pp)

	return &Config{
		LogLevel: LogInfo,
		Mode:     ModeStream,
		Pitch: PitchConfig{
			MinFreq:   minFreq,
			MaxFreq:   maxFreq,
			Prefilter: true,
		},
		YIN: YINConfig{
			ValleyThreshold: yp.ValleyThreshold,
			ValleyStep:      yp.ValleyStep,
			RemoveDC:        true,
		},
		PYin: PYinConfig{
			ValleyThreshold: pp.ValleyThreshold,
			ValleyStep:      pp.ValleyStep,
			ProbThreshold:   pp.ProbThreshold,
			WeightPrior:     pp.WeightPrior,
			Bias:            pp.Bias,
			MaxIter:         pp.MaxIter,
		},
		MonoPitch: MonoPitchConfig{
			BinPerSemitone:  mp.BinPerSemitone,
			TransSelf:       mp.TransSelf,
			YinTrust:        mp.YinTrust,
			EnergyThreshold: mp.EnergyThreshold,
			MaxObsLength:    mp.MaxObsLength,
		},
	}
}

// YINParams returns batch parameters for a sample rate.
func (c *Config) YINParams(sampleRate float64) yin.Params {
	p := yin.DefaultParams(c.Pitch.MinFreq, c.Pitch.MaxFreq, sampleRate)
	p.ValleyThreshold = c.YIN.ValleyThreshold
	p.ValleyStep = c.YIN.ValleyStep
	p.Prefilter = c.Pitch.Prefilter
	return p
}

// PYinParams returns streaming candidate parameters for a sample rate.
func (c *Config) PYinParams(sampleRate float64) pyin.Params {
	p := pyin.DefaultParams(c.Pitch.MinFreq, c.Pitch.MaxFreq, sampleRate, nil)
	p.ValleyThreshold = c.PYin.ValleyThreshold
	p.ValleyStep = c.PYin.ValleyStep
	p.ProbThreshold = c.PYin.ProbThreshold
	p.WeightPrior = c.PYin.WeightPrior
	p.Bias = c.PYin.Bias
	p.MaxIter = c.PYin.MaxIter
	p.Prefilter = c.Pitch.Prefilter
	return p
}

// MonoPitchParams returns smoother parameters matching p.
func (c *Config) MonoPitchParams(p pyin.Params) monopitch.Params {
	m := monopitch.ParamsFromPYin(p)
	m.BinPerSemitone = c.MonoPitch.BinPerSemitone
	m.TransSelf = c.MonoPitch.TransSelf
	m.YinTrust = c.MonoPitch.YinTrust
	m.EnergyThreshold = c.MonoPitch.EnergyThreshold
	m.MaxObsLength = c.MonoPitch.MaxObsLength
	return m
}
