// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/524D/peakexport/internal/config"
	"github.com/524D/peakexport/internal/inputs"
	"github.com/524D/peakexport/internal/peakdata"
	"github.com/524D/peakexport/internal/runner"
)

const progName = "peakexport"

var progVersion = `Unknown`

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1 // one or more files could not be exported
	exitUsage  = 2
)

// ErrRangeSpec is returned for a malformed min:max range
var ErrRangeSpec = errors.New("invalid range specified")

var errFilesFailed = errors.New("not all files were exported")

// exitError carries the process exit code of a failed command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: exitUsage, err: err}
}

// Command line options that are not part of the configuration
type cliOptions struct {
	configFile string
	scans      string
	mzRange    string
	debugScans string
}

var (
	intRangeRe   = regexp.MustCompile(`^\s*(\-?\d*):(\-?\d*)\s*$`)
	floatRangeRe = regexp.MustCompile(`^\s*([-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?):([-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?)\s*$`)
)

// Parse string like "-12:6" into 2 values, -12 and 6
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12:"), the default is assigned
func parseIntRange(r string, min int, max int) (int, int, error) {
	m := intRangeRe.FindStringSubmatch(r)
	if r != "" && m == nil {
		return min, max, fmt.Errorf("%w: %q", ErrRangeSpec, r)
	}
	minOut := min
	maxOut := max
	var err error
	if len(m) >= 2 && m[1] != "" {
		if minOut, err = strconv.Atoi(m[1]); err != nil {
			return min, max, fmt.Errorf("%w: %q", ErrRangeSpec, r)
		}
		if minOut < min {
			minOut = min
		}
	}
	if len(m) >= 3 && m[2] != "" {
		if maxOut, err = strconv.Atoi(m[2]); err != nil {
			return min, max, fmt.Errorf("%w: %q", ErrRangeSpec, r)
		}
		if maxOut > max {
			maxOut = max
		}
	}
	if minOut > maxOut {
		err = fmt.Errorf("%w: %q", ErrRangeSpec, r)
		minOut = maxOut
	}
	return minOut, maxOut, err
}

// Parse string like "-12.01e1:+6" into 2 values, -120.1 and 6.0
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12.01e1:"), the default is assigned
func parseFloat64Range(r string, min float64, max float64) (
	float64, float64, error) {
	m := floatRangeRe.FindStringSubmatch(r)
	if r != "" && m == nil {
		return min, max, fmt.Errorf("%w: %q", ErrRangeSpec, r)
	}
	minOut := min
	maxOut := max
	var err error
	if len(m) >= 2 && m[1] != "" {
		if minOut, err = strconv.ParseFloat(m[1], 64); err != nil {
			return min, max, fmt.Errorf("%w: %q", ErrRangeSpec, r)
		}
		if minOut < min {
			minOut = min
		}
	}
	if len(m) >= 4 && m[3] != "" {
		if maxOut, err = strconv.ParseFloat(m[3], 64); err != nil {
			return min, max, fmt.Errorf("%w: %q", ErrRangeSpec, r)
		}
		if maxOut > max {
			maxOut = max
		}
	}
	if minOut > maxOut {
		err = fmt.Errorf("%w: %q", ErrRangeSpec, r)
		minOut = maxOut
	}
	return minOut, maxOut, err
}

const longHelp = `peakexport extracts the peaks of every scan of an mzML file and writes
them to a tab separated text file (default extension .tsv), one row per peak:

  Scan Number, RT, Mass, Intensity, Resolution, Baseline, Noise, Charge,
  SignalToNoise, RelativeIntensity

Centroid scans carry the label data arrays (resolution, baseline, noise,
charge and signal to noise) when the mzML file has them. Vendor raw files can
be converted with msconvert, e.g.
  msconvert --mzML --filter "peakPicking vendor" Dataset.raw

Inputs may be files, directories or wildcard patterns, .mzML.gz files are
read directly. An output name ending in .gz is written gzip compressed.

Options can also be set in peakexport.yaml (or the file given by --config)
using the flag names with '_' instead of '-', or through environment
variables such as PEAKEXPORT_MIN_INTENSITY. Flags take precedence.`

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts cliOptions
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   progName + " [flags] <mzML file|directory|pattern>...",
		Short: "Export the peaks of mzML files as tab separated text",
		Long:  longHelp,
		Example: `  peakexport Dataset.mzML
  peakexport Dataset.mzML -o DatasetPeaks.tsv
  peakexport Dataset.mzML --min-rel-intensity 10
  peakexport Dataset.mzML --min-sn 2 --scans 1000:2000
  peakexport 'data/*.mzML.gz' --jobs 4`,
		Version:       progVersion,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args, opts, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	fl := cmd.Flags()
	fl.StringVar(&opts.configFile, "config", "", "config `file` (default peakexport.yaml in the working directory)")
	fl.Float64("min-intensity", defaults.MinIntensity, "minimum peak intensity")
	fl.Float64("min-rel-intensity", defaults.MinRelIntensity,
		"minimum intensity relative to the most intense peak of the scan, in percent (0-99)")
	fl.Int("min-scan", defaults.MinScan, "first scan to export (-1: first scan of the file)")
	fl.Int("max-scan", defaults.MaxScan, "last scan to export (-1: last scan of the file)")
	fl.StringVar(&opts.scans, "scans", "", "scan `range` to export, e.g. 1000:2000, overrides --min-scan/--max-scan")
	fl.Float64("min-mz", defaults.MinMz, "minimum m/z")
	fl.Float64("max-mz", defaults.MaxMz, "maximum m/z")
	fl.StringVar(&opts.mzRange, "mz", "", "m/z `range` to export, e.g. 400:1200, overrides --min-mz/--max-mz")
	fl.Float64("min-sn", defaults.MinSignalToNoise, "minimum signal to noise ratio (centroid scans with label data)")
	fl.StringP("output", "o", defaults.Output,
		"output `file` or directory. With several inputs the output is written next to each input")
	fl.BoolP("recurse", "r", defaults.Recurse, "search input directories recursively")
	fl.IntP("jobs", "j", defaults.Jobs, "number of files processed in parallel")
	fl.String("log-level", defaults.LogLevel, "log `level`: debug, info, warn or error")
	fl.String("log-format", defaults.LogFormat, "log `format`: console or json")
	fl.BoolP("quiet", "q", defaults.Quiet, "only print errors")
	fl.StringVar(&opts.debugScans, "debug-scans", "",
		"print peak statistics of the given scan `range` (e.g. 3:6) to stderr before exporting")

	return cmd
}

func runExport(cmd *cobra.Command, args []string, opts cliOptions, stdout, stderr io.Writer) error {
	loader := config.NewLoader(opts.configFile, ".")
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return usageError(err)
	}
	if opts.scans != "" {
		minScan, maxScan, err := parseIntRange(opts.scans, 0, math.MaxInt32)
		if err != nil {
			return usageError(fmt.Errorf("invalid value for --scans: %w", err))
		}
		loader.Set("min_scan", minScan)
		loader.Set("max_scan", maxScan)
	}
	if opts.mzRange != "" {
		minMz, maxMz, err := parseFloat64Range(opts.mzRange, 0, peakdata.DefaultMaxMz)
		if err != nil {
			return usageError(fmt.Errorf("invalid value for --mz: %w", err))
		}
		loader.Set("min_mz", minMz)
		loader.Set("max_mz", maxMz)
	}

	cfg, err := loader.Load()
	if err != nil {
		return usageError(err)
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat, cfg.Quiet, stderr)
	if err != nil {
		return usageError(err)
	}
	defer logger.Sync()
	if used := loader.ConfigFileUsed(); used != "" {
		logger.Debug("using config file", zap.String("file", used))
	}

	files, err := inputs.ExpandAll(args, cfg.Recurse)
	if err != nil {
		return usageError(err)
	}

	if opts.debugScans != "" {
		for _, f := range files {
			if err := debugDumpScans(stderr, f, opts.debugScans, cfg.Filter()); err != nil {
				logger.Error("debug dump failed", zap.String("input", f), zap.Error(err))
			}
		}
	}

	progress := newProgressFactory(stderr, logger, cfg.Quiet, cfg.Jobs)
	r := runner.New(runner.Options{
		Filter: cfg.Filter(),
		Output: cfg.Output,
		Jobs:   cfg.Jobs,
	}, logger, progress.events)

	results := r.RunAll(cmd.Context(), files)
	if !cfg.Quiet {
		fmt.Fprintln(stdout, renderSummary(results))
	}
	if n := runner.Failed(results); n > 0 {
		return &exitError{code: exitFailed, err: fmt.Errorf("%w: %d of %d failed", errFilesFailed, n, len(results))}
	}
	return nil
}

// run executes the command line and returns the exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(stderr, "%s: %v\n", progName, err)
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.code == exitUsage {
			fmt.Fprintf(stderr, "Type %s --help for usage\n", progName)
		}
		return ee.code
	}
	// argument errors reported by cobra itself
	return exitUsage
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
