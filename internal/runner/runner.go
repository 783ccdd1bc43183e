// Package runner exports the peaks of one or more mzML files, each into
// its own output file.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/524D/peakexport/internal/inputs"
	"github.com/524D/peakexport/internal/instrument"
	"github.com/524D/peakexport/internal/peakdata"
)

// ErrOutputLocked indicates that another process writes the same output
var ErrOutputLocked = errors.New("output file is in use by another process")

// ErrOutputConflict indicates that two inputs map to the same output file
var ErrOutputConflict = errors.New("output file conflicts with another input")

// EventsFunc returns the event sink for the run of one input file
type EventsFunc func(input string) peakdata.Events

// Finisher is implemented by event sinks that need to know when the run
// of their file has ended
type Finisher interface {
	Finish()
}

// Options control a Runner
type Options struct {
	Filter peakdata.FilterConfig
	// Output file, or directory, see inputs.OutputPath
	Output string
	// Maximum number of files processed concurrently
	Jobs int
}

// Result reports the run of one input file
type Result struct {
	Input     string
	Output    string
	ScanCount int
	Summary   peakdata.Summary
	Duration  time.Duration
	Err       error
}

// Runner processes input files
type Runner struct {
	opts   Options
	log    *zap.Logger
	events EventsFunc
}

// New creates a runner. log and events may be nil.
func New(opts Options, log *zap.Logger, events EventsFunc) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if events == nil {
		events = func(string) peakdata.Events { return peakdata.NopEvents{} }
	}
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	return &Runner{opts: opts, log: log, events: events}
}

// RunAll processes every input. A failing file does not stop the others.
// Results are returned in input order. An input whose output path was
// already claimed by an earlier input fails with ErrOutputConflict.
func (r *Runner) RunAll(ctx context.Context, files []string) []Result {
	results := make([]Result, len(files))
	single := len(files) == 1
	claimed := make(map[string]string, len(files))

	var g errgroup.Group
	g.SetLimit(r.opts.Jobs)
	for i, input := range files {
		output := inputs.OutputPath(input, r.opts.Output, single)
		key := filepath.Clean(output)
		if first, ok := claimed[key]; ok {
			results[i] = Result{
				Input:  input,
				Output: output,
				Err:    fmt.Errorf("%w: %s is already written for %s", ErrOutputConflict, output, first),
			}
			r.log.Error("export skipped", zap.String("input", input), zap.Error(results[i].Err))
			continue
		}
		claimed[key] = input
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Input: input, Output: output, Err: err}
				return nil
			}
			results[i] = r.RunFile(ctx, input, output)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// RunFile exports the peaks of input into output. The output is replaced.
func (r *Runner) RunFile(ctx context.Context, input, output string) (res Result) {
	start := time.Now()
	res = Result{Input: input, Output: output}
	log := r.log.With(zap.String("input", input))
	defer func() {
		res.Duration = time.Since(start)
		if res.Err != nil {
			log.Error("export failed", zap.Error(res.Err))
			return
		}
		log.Info("export complete",
			zap.String("output", output),
			zap.Int("scans_written", res.Summary.Scans),
			zap.Int("rows", res.Summary.Rows),
			zap.Duration("elapsed", res.Duration))
	}()

	f := r.opts.Filter
	log.Info("exporting peaks",
		zap.String("output", output),
		zap.Float64("min_intensity", f.MinIntensity),
		zap.Float64("min_rel_intensity", f.MinRelIntensity),
		zap.Int("min_scan", f.MinScan),
		zap.Int("max_scan", f.MaxScan),
		zap.Float64("min_mz", f.MinMz),
		zap.Float64("max_mz", f.MaxMz),
		zap.Float64("min_sn", f.MinSignalToNoise))

	file, err := instrument.Open(input)
	if err != nil {
		res.Err = fmt.Errorf("open %s: %w", input, err)
		return res
	}
	defer file.Close()
	res.ScanCount = file.ScanCount()

	events := r.events(input)
	if fin, ok := events.(Finisher); ok {
		defer fin.Finish()
	}
	extractor, err := peakdata.NewExtractor(file, f, events)
	if err != nil {
		res.Err = err
		return res
	}

	if err := ensureDir(filepath.Dir(output), log); err != nil {
		res.Err = err
		return res
	}

	lock := flock.New(output + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		res.Err = fmt.Errorf("lock %s: %w", output, err)
		return res
	}
	if !locked {
		res.Err = fmt.Errorf("%w: %s", ErrOutputLocked, output)
		return res
	}
	// Unlock only, the lock file is never removed
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("failed to release output lock", zap.Error(err))
		}
	}()

	out, err := createSink(output)
	if err != nil {
		res.Err = fmt.Errorf("create %s: %w", output, err)
		return res
	}

	seq := &ctxSequence{ctx: ctx, seq: extractor}
	res.Summary, res.Err = peakdata.NewStreamWriter(out, events).WriteAll(seq, res.ScanCount)
	return res
}

func ensureDir(dir string, log *zap.Logger) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	log.Warn("output directory does not exist, creating it", zap.String("dir", dir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// ctxSequence stops a sequence when its context is cancelled
type ctxSequence struct {
	ctx context.Context
	seq peakdata.Sequence
	err error
}

func (s *ctxSequence) Next() bool {
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}
	return s.seq.Next()
}

func (s *ctxSequence) Record() *peakdata.ScanRecord {
	return s.seq.Record()
}

func (s *ctxSequence) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.seq.Err()
}

// Failed returns the number of failed results
func Failed(results []Result) int {
	n := 0
	for _, res := range results {
		if res.Err != nil {
			n++
		}
	}
	return n
}
