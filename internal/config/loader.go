package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over [Default] and validates the
// result. Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found. Sample-rate dependent
// limits are checked when the processors are built.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if !cfg.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("mode %q is invalid; valid values: batch, stream", cfg.Mode))
	}
	if cfg.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d must be >= 0", cfg.Workers))
	}

	if cfg.Pitch.MinFreq <= 0 {
		errs = append(errs, fmt.Errorf("pitch.min_freq %v must be > 0", cfg.Pitch.MinFreq))
	}
	if cfg.Pitch.MaxFreq <= cfg.Pitch.MinFreq {
		errs = append(errs, fmt.Errorf("pitch.max_freq %v must exceed pitch.min_freq %v", cfg.Pitch.MaxFreq, cfg.Pitch.MinFreq))
	}

	if cfg.YIN.ValleyStep <= 0 {
		errs = append(errs, fmt.Errorf("yin.valley_step %v must be > 0", cfg.YIN.ValleyStep))
	}
	if cfg.PYin.ValleyStep <= 0 {
		errs = append(errs, fmt.Errorf("pyin.valley_step %v must be > 0", cfg.PYin.ValleyStep))
	}
	if cfg.PYin.MaxIter < 1 {
		errs = append(errs, fmt.Errorf("pyin.max_iter %d must be >= 1", cfg.PYin.MaxIter))
	}

	if cfg.MonoPitch.TransSelf < 0 || cfg.MonoPitch.TransSelf > 1 {
		errs = append(errs, fmt.Errorf("monopitch.trans_self %v is out of range [0, 1]", cfg.MonoPitch.TransSelf))
	}
	if cfg.MonoPitch.YinTrust < 0 || cfg.MonoPitch.YinTrust > 1 {
		errs = append(errs, fmt.Errorf("monopitch.yin_trust %v is out of range [0, 1]", cfg.MonoPitch.YinTrust))
	}
	if cfg.MonoPitch.BinPerSemitone <= 0 {
		errs = append(errs, fmt.Errorf("monopitch.bin_per_semitone %d must be > 0", cfg.MonoPitch.BinPerSemitone))
	}
	if cfg.MonoPitch.MaxObsLength <= 0 {
		errs = append(errs, fmt.Errorf("monopitch.max_obs_length %d must be > 0", cfg.MonoPitch.MaxObsLength))
	}

	return errors.Join(errs...)
}
