package peakdata

// Events receives the diagnostics of an extraction run. Implementations
// must not block; they are called synchronously from the pipeline.
type Events interface {
	// Progress reports the percentage of the file's scans processed so far.
	Progress(message string, percentComplete float64)
	// Warning reports a recoverable condition. scanNumber is 0 when the
	// warning does not concern a particular scan.
	Warning(message string, scanNumber int)
	// Error reports a condition that ended (part of) the run.
	Error(message string, cause error)
}

// NopEvents discards all events
type NopEvents struct{}

func (NopEvents) Progress(string, float64) {}
func (NopEvents) Warning(string, int)      {}
func (NopEvents) Error(string, error)      {}

func orNop(e Events) Events {
	if e == nil {
		return NopEvents{}
	}
	return e
}
