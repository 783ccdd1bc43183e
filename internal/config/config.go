// Package config holds the run options of peakexport and loads them
// from defaults, an optional YAML file, PEAKEXPORT_* environment
// variables and command line flags, in increasing priority.
package config

import (
	"github.com/524D/peakexport/internal/peakdata"
)

// Config is the complete set of run options
type Config struct {
	// Peak filters
	MinIntensity     float64 `mapstructure:"min_intensity"`
	MinRelIntensity  float64 `mapstructure:"min_rel_intensity"` // percentage
	MinScan          int     `mapstructure:"min_scan"`
	MaxScan          int     `mapstructure:"max_scan"`
	MinMz            float64 `mapstructure:"min_mz"`
	MaxMz            float64 `mapstructure:"max_mz"`
	MinSignalToNoise float64 `mapstructure:"min_sn"`

	// Output file or directory. Empty means next to each input file.
	Output  string `mapstructure:"output"`
	Recurse bool   `mapstructure:"recurse"`
	Jobs    int    `mapstructure:"jobs"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	Quiet     bool   `mapstructure:"quiet"`
}

// Default returns the options used when nothing is configured
func Default() *Config {
	f := peakdata.DefaultFilter()
	return &Config{
		MinIntensity:     f.MinIntensity,
		MinRelIntensity:  f.MinRelIntensity,
		MinScan:          f.MinScan,
		MaxScan:          f.MaxScan,
		MinMz:            f.MinMz,
		MaxMz:            f.MaxMz,
		MinSignalToNoise: f.MinSignalToNoise,
		Jobs:             1,
		LogLevel:         "info",
		LogFormat:        "console",
	}
}

// Filter returns the peak filter part of the options
func (c *Config) Filter() peakdata.FilterConfig {
	return peakdata.FilterConfig{
		MinIntensity:     c.MinIntensity,
		MinRelIntensity:  c.MinRelIntensity,
		MinScan:          c.MinScan,
		MaxScan:          c.MaxScan,
		MinMz:            c.MinMz,
		MaxMz:            c.MaxMz,
		MinSignalToNoise: c.MinSignalToNoise,
	}
}
