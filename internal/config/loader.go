package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys of all options. Flags use the same names with '-' instead of '_',
// environment variables are prefixed with PEAKEXPORT_ and upper case.
var keys = []string{
	"min_intensity",
	"min_rel_intensity",
	"min_scan",
	"max_scan",
	"min_mz",
	"max_mz",
	"min_sn",
	"output",
	"recurse",
	"jobs",
	"log_level",
	"log_format",
	"quiet",
}

// Loader loads a Config
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a loader. When configFile is empty, peakexport.yaml
// is looked up in searchDir and may be absent.
func NewLoader(configFile, searchDir string) *Loader {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("peakexport")
		v.SetConfigType("yaml")
		v.AddConfigPath(searchDir)
	}

	v.SetEnvPrefix("PEAKEXPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return &Loader{v: v, configFile: configFile}
}

// BindFlags makes the flags of fs override the file and environment.
// Only flags named after a configuration key are bound.
func (l *Loader) BindFlags(fs *pflag.FlagSet) error {
	for _, key := range keys {
		f := fs.Lookup(strings.ReplaceAll(key, "_", "-"))
		if f == nil {
			continue
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	}
	return nil
}

// Set overrides a key with the highest priority
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// ConfigFileUsed returns the config file that was read, if any
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Load reads the configuration and validates it
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || l.configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("min_intensity", d.MinIntensity)
	v.SetDefault("min_rel_intensity", d.MinRelIntensity)
	v.SetDefault("min_scan", d.MinScan)
	v.SetDefault("max_scan", d.MaxScan)
	v.SetDefault("min_mz", d.MinMz)
	v.SetDefault("max_mz", d.MaxMz)
	v.SetDefault("min_sn", d.MinSignalToNoise)

	v.SetDefault("output", d.Output)
	v.SetDefault("recurse", d.Recurse)
	v.SetDefault("jobs", d.Jobs)

	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("quiet", d.Quiet)
}
