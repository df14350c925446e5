package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"text/tabwriter"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-pitch/dsp/core"
	"github.com/cwbudde/algo-pitch/dsp/pitch/monopitch"
	"github.com/cwbudde/algo-pitch/dsp/pitch/yin"
	"github.com/cwbudde/algo-pitch/internal/config"
	"github.com/cwbudde/algo-pitch/internal/observe"
	"github.com/cwbudde/algo-pitch/internal/wavio"
)

// streamChunk is the block size handed to the tracker in stream mode.
const streamChunk = 4096

// track is the analysis result of one file.
type track struct {
	path     string
	hopTime  float64 // seconds per hop
	freqs    []float64
	duration time.Duration
}

// run analyses files concurrently and writes their tracks to w in argument
// order.
func run(ctx context.Context, cfg *config.Config, files []string, w io.Writer, logger *slog.Logger) error {
	var (
		reader *sdkmetric.ManualReader
		mp     metric.MeterProvider
	)
	if cfg.Metrics {
		reader = sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer provider.Shutdown(context.Background())
		mp = provider
	}

	opts := []core.ProcessorOption{core.WithLogger(logger), core.WithMetrics(mp)}
	metrics, err := observe.NewMetrics(core.ApplyProcessorOptions(opts...).MeterProvider)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	limit := cfg.Workers
	if limit == 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]track, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			t, err := analyze(cfg, path, opts)
			if err != nil {
				return err
			}
			t.duration = time.Since(start)
			results[i] = t

			metrics.AnalysisDuration.Record(gctx, t.duration.Seconds(),
				metric.WithAttributes(attribute.String("mode", string(cfg.Mode))))
			logger.Info("analysed", "file", path, "hops", len(t.freqs), "elapsed", t.duration)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, t := range results {
		if err := writeTrack(w, t); err != nil {
			return err
		}
	}

	if reader != nil {
		var rm metricdata.ResourceMetrics
		if err := reader.Collect(ctx, &rm); err != nil {
			return fmt.Errorf("collect metrics: %w", err)
		}
		return writeMetrics(w, rm)
	}
	return nil
}

// analyze reads one file and runs the configured pipeline over it.
func analyze(cfg *config.Config, path string, opts []core.ProcessorOption) (track, error) {
	audio, err := wavio.ReadFile(path)
	if err != nil {
		return track{}, err
	}
	sr := float64(audio.SampleRate)
	t := track{path: path}

	switch cfg.Mode {
	case config.ModeBatch:
		p := cfg.YINParams(sr)
		est, err := yin.NewEstimator(p, opts...)
		if err != nil {
			return track{}, fmt.Errorf("%s: %w", path, err)
		}
		if t.freqs, err = est.Estimate(audio.Samples, cfg.YIN.RemoveDC); err != nil {
			return track{}, fmt.Errorf("%s: %w", path, err)
		}
		t.hopTime = float64(p.HopSize) / sr

	default:
		pp := cfg.PYinParams(sr)
		tr, err := monopitch.NewTracker(pp, cfg.MonoPitchParams(pp), opts...)
		if err != nil {
			return track{}, fmt.Errorf("%s: %w", path, err)
		}
		x := audio.Samples
		for len(x) > 0 {
			n := min(streamChunk, len(x))
			if _, err := tr.Process(x[:n]); err != nil {
				return track{}, fmt.Errorf("%s: %w", path, err)
			}
			x = x[n:]
		}
		freqs, err := tr.Flush()
		if err != nil {
			return track{}, fmt.Errorf("%s: %w", path, err)
		}
		t.freqs = append([]float64(nil), freqs...)
		t.hopTime = float64(pp.HopSize) / sr
	}

	return t, nil
}

func writeTrack(w io.Writer, t track) error {
	if _, err := fmt.Fprintf(w, "# %s\n", t.path); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "time\tfrequency\t\n")
	for i, f := range t.freqs {
		fmt.Fprintf(tw, "%.4f\t%.2f\t\n", float64(i)*t.hopTime, f)
	}
	return tw.Flush()
}

func writeMetrics(w io.Writer, rm metricdata.ResourceMetrics) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "# metrics\n")
	for _, name := range []string{"pitch.hops", "pitch.voiced_hops", "pitch.decoder.degenerate"} {
		fmt.Fprintf(tw, "%s\t%d\n", name, observe.CounterTotal(rm, name))
	}
	return tw.Flush()
}
