package config

import (
	"errors"
	"fmt"

	"github.com/524D/peakexport/internal/peakdata"
)

var (
	// ErrScanRange indicates min_scan is larger than max_scan
	ErrScanRange = peakdata.ErrScanRange

	// ErrMzRange indicates min_mz is larger than max_mz
	ErrMzRange = peakdata.ErrMzRange

	// ErrRelIntensity indicates a relative intensity outside 0-99
	ErrRelIntensity = peakdata.ErrRelIntensity

	// ErrNegativeThreshold indicates a threshold below zero
	ErrNegativeThreshold = errors.New("threshold cannot be negative")

	// ErrJobs indicates an invalid number of parallel jobs
	ErrJobs = errors.New("jobs must be at least 1")

	// ErrLogLevel indicates an unknown log level
	ErrLogLevel = errors.New("invalid log level")

	// ErrLogFormat indicates an unknown log format
	ErrLogFormat = errors.New("invalid log format")
)

var logLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks all options and returns every violation found
func Validate(cfg *Config) error {
	var errs []error

	if err := cfg.Filter().Validate(); err != nil {
		errs = append(errs, err)
	}

	negatives := []struct {
		name  string
		value float64
	}{
		{"min_intensity", cfg.MinIntensity},
		{"min_mz", cfg.MinMz},
		{"min_sn", cfg.MinSignalToNoise},
	}
	for _, n := range negatives {
		if n.value < 0 {
			errs = append(errs, fmt.Errorf("%w: %s = %g", ErrNegativeThreshold, n.name, n.value))
		}
	}

	if cfg.Jobs < 1 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrJobs, cfg.Jobs))
	}
	if !logLevels[cfg.LogLevel] {
		errs = append(errs, fmt.Errorf("%w: %q", ErrLogLevel, cfg.LogLevel))
	}
	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("%w: %q (must be console or json)", ErrLogFormat, cfg.LogFormat))
	}

	return errors.Join(errs...)
}
