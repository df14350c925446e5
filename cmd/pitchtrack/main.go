// Command pitchtrack estimates the pitch track of 16-bit PCM WAV files.
//
// Usage:
//
//	pitchtrack [flags] file.wav ...
//
// Each file is printed as a "# file" header followed by one
// "time<TAB>frequency" row per hop. In stream mode unvoiced hops carry a
// negative frequency and silent hops 0; in batch mode hops without a pitch
// are 0.
//
// Examples:
//
//	pitchtrack voice.wav
//	pitchtrack -mode batch -min 60 -max 600 a.wav b.wav
//	pitchtrack -config pitch.yaml -j 4 -metrics *.wav
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/cwbudde/algo-pitch/internal/config"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	mode := flag.String("mode", "", "analysis mode: batch or stream (overrides config)")
	workers := flag.Int("j", -1, "files analysed concurrently, 0 for one per CPU (overrides config)")
	minFreq := flag.Float64("min", 0, "lowest pitch in Hz (overrides config)")
	maxFreq := flag.Float64("max", 0, "highest pitch in Hz (overrides config)")
	metrics := flag.Bool("metrics", false, "print hop counters after the run")
	logLevel := flag.String("log-level", "", "debug, info, warn or error (overrides config)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pitchtrack [flags] file.wav ...\n\n")
		fmt.Fprintf(os.Stderr, "Estimates the pitch track of 16-bit PCM WAV files.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	if *mode != "" {
		cfg.Mode = config.Mode(*mode)
	}
	if *workers >= 0 {
		cfg.Workers = *workers
	}
	if *minFreq > 0 {
		cfg.Pitch.MinFreq = *minFreq
	}
	if *maxFreq > 0 {
		cfg.Pitch.MaxFreq = *maxFreq
	}
	if *logLevel != "" {
		cfg.LogLevel = config.LogLevel(*logLevel)
	}
	cfg.Metrics = cfg.Metrics || *metrics

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel.Level()}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, flag.Args(), os.Stdout, logger); err != nil {
		logger.Error("pitchtrack failed", "err", err)
		os.Exit(1)
	}
}
