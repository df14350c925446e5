// Package observe holds the OpenTelemetry instruments recorded by the pitch
// processors.
//
// Processors obtain their meter provider from core.WithMetrics and default to
// the global provider, which is a no-op until an application installs one.
// Tests should build [Metrics] on a private provider with a ManualReader.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all pitch metrics.
const meterName = "github.com/cwbudde/algo-pitch"

// Stage names used as the "stage" attribute.
const (
	StagePYin      = "pyin"
	StageMonoPitch = "monopitch"
	StageYin       = "yin"
)

// Metrics holds the metric instruments. All fields are safe for concurrent
// use.
type Metrics struct {
	// Hops counts analysed hops. Use with attribute.String("stage", ...).
	Hops metric.Int64Counter

	// Candidates records the number of pitch candidates produced per hop.
	Candidates metric.Int64Histogram

	// DecoderDegenerate counts decoder steps whose belief collapsed to zero.
	DecoderDegenerate metric.Int64Counter

	// VoicedHops counts hops resolved to a voiced (positive) frequency.
	VoicedHops metric.Int64Counter

	// AnalysisDuration tracks wall time spent analysing one input file.
	AnalysisDuration metric.Float64Histogram
}

// candidateBuckets covers the candidate counts one hop can produce.
var candidateBuckets = []float64{0, 1, 2, 3, 4, 6, 8, 16, 32, 128}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Hops, err = m.Int64Counter("pitch.hops",
		metric.WithDescription("Analysed hops by processing stage."),
	); err != nil {
		return nil, err
	}
	if met.Candidates, err = m.Int64Histogram("pitch.candidates",
		metric.WithDescription("Pitch candidates produced per hop."),
		metric.WithExplicitBucketBoundaries(candidateBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DecoderDegenerate, err = m.Int64Counter("pitch.decoder.degenerate",
		metric.WithDescription("Decoder steps whose belief vector summed to zero."),
	); err != nil {
		return nil, err
	}
	if met.VoicedHops, err = m.Int64Counter("pitch.voiced_hops",
		metric.WithDescription("Hops resolved to a voiced frequency."),
	); err != nil {
		return nil, err
	}
	if met.AnalysisDuration, err = m.Float64Histogram("pitch.analysis.duration",
		metric.WithDescription("Wall time spent analysing one input."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordHop counts one analysed hop of the given stage and, when candidates
// is non-negative, records how many candidates it produced.
func (m *Metrics) RecordHop(ctx context.Context, stage string, candidates int) {
	attrs := metric.WithAttributes(attribute.String("stage", stage))
	m.Hops.Add(ctx, 1, attrs)
	if candidates >= 0 {
		m.Candidates.Record(ctx, int64(candidates), attrs)
	}
}
