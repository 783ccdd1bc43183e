package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/524D/peakexport/internal/peakdata"
)

// progressFactory creates the event sink of each exported file. Progress
// is shown as a bar on a terminal when files are processed one at a time,
// otherwise it is logged at most once per second.
type progressFactory struct {
	w      io.Writer
	log    *zap.Logger
	useBar bool
	now    func() time.Time
}

func newProgressFactory(w io.Writer, log *zap.Logger, quiet bool, jobs int) *progressFactory {
	return &progressFactory{
		w:      w,
		log:    log,
		useBar: !quiet && jobs == 1 && isTerminal(w),
		now:    time.Now,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *progressFactory) events(input string) peakdata.Events {
	e := &fileEvents{
		log:          p.log.With(zap.String("input", input)),
		now:          p.now,
		lastProgress: p.now(),
	}
	if p.useBar {
		w := p.w
		e.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(filepath.Base(input)),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(w)
			}),
		)
	}
	return e
}

type fileEvents struct {
	log          *zap.Logger
	bar          *progressbar.ProgressBar
	now          func() time.Time
	lastProgress time.Time
}

func (e *fileEvents) Progress(message string, percentComplete float64) {
	if e.bar != nil {
		e.bar.Set(int(percentComplete))
		return
	}
	now := e.now()
	if now.Sub(e.lastProgress) < time.Second {
		return
	}
	e.lastProgress = now
	e.log.Info(fmt.Sprintf("%.1f%% finished: %s", percentComplete, message))
}

func (e *fileEvents) Warning(message string, scanNumber int) {
	if e.bar != nil {
		e.bar.Clear()
	}
	if scanNumber > 0 {
		e.log.Warn(message, zap.Int("scan", scanNumber))
		return
	}
	e.log.Warn(message)
}

func (e *fileEvents) Error(message string, cause error) {
	if e.bar != nil {
		e.bar.Clear()
	}
	e.log.Error(message, zap.Error(cause))
}

// Finish completes the progress bar of a file
func (e *fileEvents) Finish() {
	if e.bar != nil {
		e.bar.Finish()
	}
}
