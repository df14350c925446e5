package core

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// ProcessorConfig holds the cross-cutting settings shared by the streaming
// processors: where diagnostics go and which meter provider records counters.
type ProcessorConfig struct {
	Logger        *slog.Logger
	MeterProvider metric.MeterProvider
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns a silent configuration: a discarding logger
// and the global meter provider (a no-op unless the application installs one).
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		Logger:        slog.New(slog.DiscardHandler),
		MeterProvider: otel.GetMeterProvider(),
	}
}

// WithLogger routes processor diagnostics to logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if logger != nil {
			cfg.Logger = logger
		}
	}
}

// WithMetrics records processor metrics on mp. A nil provider is ignored.
func WithMetrics(mp metric.MeterProvider) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if mp != nil {
			cfg.MeterProvider = mp
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
