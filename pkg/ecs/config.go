package ecs

import (
	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// defaultParallelScanThreshold is the store size, in slots, from which query scans fan out.
const defaultParallelScanThreshold = 4096

// worldConfig holds the configuration for a World instance.
// Configuration can be set via environment variables with the specified defaults.
type worldConfig struct {
	// Maximum number of component types. 0 keeps the membership bitmaps unbounded.
	MaxComponents int `env:"MECS_MAX_COMPONENTS" envDefault:"0"`

	// Number of goroutines used for query scans and for each dispatcher stage. 0 uses GOMAXPROCS.
	Workers int `env:"MECS_WORKERS" envDefault:"0"`

	// Store size, in slots, from which query scans are split across workers.
	ParallelScanThreshold int `env:"MECS_PARALLEL_SCAN_THRESHOLD" envDefault:"4096"`
}

// loadWorldConfig loads the world configuration from environment variables.
func loadWorldConfig() (worldConfig, error) {
	cfg := worldConfig{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse world config")
	}

	return cfg, nil
}

// applyToOptions applies the configuration values to the given WorldOptions.
func (cfg *worldConfig) applyToOptions(opt *WorldOptions) {
	opt.MaxComponents = cfg.MaxComponents
	opt.Workers = cfg.Workers
	opt.ParallelScanThreshold = cfg.ParallelScanThreshold
}

type WorldOptions struct {
	MaxComponents         int             // Max number of component types, 0 for unbounded
	Workers               int             // Worker pool size, 0 for GOMAXPROCS
	ParallelScanThreshold int             // Slots from which query scans run in parallel
	Logger                *zerolog.Logger // Logger to use, built from the telemetry config when nil
	Tracer                trace.Tracer    // Tracer to use, built from the telemetry config when nil
}

// newDefaultWorldOptions creates WorldOptions with default values.
func newDefaultWorldOptions() WorldOptions {
	return WorldOptions{
		MaxComponents:         0,
		Workers:               0,
		ParallelScanThreshold: defaultParallelScanThreshold,
		Logger:                nil,
		Tracer:                nil,
	}
}

// apply merges the given options into the current options, overriding non-zero values.
func (opt *WorldOptions) apply(newOpt WorldOptions) {
	if newOpt.MaxComponents != 0 {
		opt.MaxComponents = newOpt.MaxComponents
	}
	if newOpt.Workers != 0 {
		opt.Workers = newOpt.Workers
	}
	if newOpt.ParallelScanThreshold != 0 {
		opt.ParallelScanThreshold = newOpt.ParallelScanThreshold
	}
	if newOpt.Logger != nil {
		opt.Logger = newOpt.Logger
	}
	if newOpt.Tracer != nil {
		opt.Tracer = newOpt.Tracer
	}
}

// validate checks that all options are valid.
func (opt *WorldOptions) validate() error {
	if opt.MaxComponents < 0 {
		return eris.New("max components cannot be negative")
	}
	if opt.Workers < 0 {
		return eris.New("workers cannot be negative")
	}
	if opt.ParallelScanThreshold < 1 {
		return eris.New("parallel scan threshold must be at least 1")
	}
	return nil
}
