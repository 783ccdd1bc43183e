package peakdata

import (
	"errors"
	"fmt"
)

// ErrNoData is returned by a Reader when a scan holds no usable peaks.
// The extractor skips such scans with a warning.
var ErrNoData = errors.New("no data")

// Reader gives access to the scans of one acquisition. Scans are
// addressed by scan number, the first scan of a file is not
// necessarily 1.
type Reader interface {
	ScanRange() (first, last int, err error)
	ScanKind(scanNumber int) (ScanKind, error)
	// LabelPeaks returns the centroid peaks including their label data
	LabelPeaks(scanNumber int) ([]RawPeak, error)
	// ProfilePeaks returns mass and intensity of the profile points
	ProfilePeaks(scanNumber int) ([]RawPeak, error)
	// RetentionTime returns the scan start time in minutes
	RetentionTime(scanNumber int) (float64, error)
}

// Sequence is a pull iterator over scan records
type Sequence interface {
	Next() bool
	Record() *ScanRecord
	Err() error
}

// ScanError is a failure tied to a particular scan
type ScanError struct {
	Scan int
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %d: %v", e.Scan, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Extractor walks the scans of a Reader in increasing order and yields
// a ScanRecord for every scan that has peaks left after filtering.
// Nothing is read before the first call to Next.
type Extractor struct {
	r      Reader
	filter FilterConfig
	events Events

	resolved bool
	rng      EffectiveRange
	scan     int
	done     bool

	rec *ScanRecord
	err error

	warnedProfileSN bool
}

// NewExtractor validates the filter and returns an extractor over r.
// events may be nil.
func NewExtractor(r Reader, filter FilterConfig, events Events) (*Extractor, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{
		r:      r,
		filter: filter,
		events: orNop(events),
	}, nil
}

// Range returns the scan range the extractor covers. The range is empty
// when the reader could not report its scan bounds.
func (e *Extractor) Range() EffectiveRange {
	e.resolve()
	return e.rng
}

func (e *Extractor) resolve() {
	if e.resolved {
		return
	}
	e.resolved = true
	first, last, err := e.r.ScanRange()
	if err != nil {
		e.events.Error("cannot determine the scan range", err)
		e.rng = EffectiveRange{First: 1, Last: 0}
		e.done = true
		return
	}
	e.rng = ResolveRange(e.filter, first, last)
	e.scan = e.rng.First
}

// Next advances to the next non-empty scan. It returns false when the
// range is exhausted or a reader fault occurred, see Err.
func (e *Extractor) Next() bool {
	e.resolve()
	e.rec = nil
	for !e.done && e.scan <= e.rng.Last {
		n := e.scan
		e.scan++
		rec, err := e.extract(n)
		if err != nil {
			e.err = &ScanError{Scan: n, Err: err}
			e.done = true
			return false
		}
		if rec != nil {
			e.rec = rec
			return true
		}
	}
	e.done = true
	return false
}

// Record returns the record of the current scan
func (e *Extractor) Record() *ScanRecord {
	return e.rec
}

// Err returns the reader fault that stopped the sequence, if any
func (e *Extractor) Err() error {
	return e.err
}

// extract returns nil without error for scans that are skipped
func (e *Extractor) extract(n int) (*ScanRecord, error) {
	kind, err := e.r.ScanKind(n)
	if err != nil {
		return nil, err
	}
	var peaks []RawPeak
	if kind == Centroid {
		peaks, err = e.r.LabelPeaks(n)
	} else {
		peaks, err = e.r.ProfilePeaks(n)
	}
	if err != nil && !errors.Is(err, ErrNoData) {
		return nil, err
	}
	if len(peaks) == 0 {
		e.events.Warning(fmt.Sprintf("no data for scan %d", n), n)
		return nil, nil
	}
	if kind == Profile && e.filter.MinSignalToNoise > 0 && !e.warnedProfileSN {
		e.warnedProfileSN = true
		e.events.Warning(fmt.Sprintf(
			"scan %d is a profile scan without signal to noise data, the signal to noise filter removes all its peaks", n), n)
	}

	maxIntensity := MaxIntensity(peaks)
	if isZero(maxIntensity) {
		return nil, nil
	}

	kept := peaks[:0:0]
	for _, p := range peaks {
		if e.filter.Keep(p, maxIntensity) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil, nil
	}

	rt, err := e.r.RetentionTime(n)
	if err != nil {
		return nil, err
	}
	return &ScanRecord{
		ScanNumber:   n,
		ScanTime:     rt,
		Peaks:        kept,
		MaxIntensity: maxIntensity,
	}, nil
}
