// Package peakdata extracts, filters, orders and serializes the peaks of
// every scan of an acquisition. Scans are pulled one at a time from a
// Reader, so memory use is bounded by the largest single scan.
package peakdata

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// DefaultMaxMz is the upper m/z bound used when none is configured
const DefaultMaxMz = 10000000

// UnboundedScan as MinScan or MaxScan means "use the file's scan bounds"
const UnboundedScan = -1

// zeroEpsilon is the smallest positive float32, the tolerance below which
// an intensity (or an output value) is treated as zero.
const zeroEpsilon = math.SmallestNonzeroFloat32

// ScanKind tells whether a scan holds centroid (label) or profile data
type ScanKind int

const (
	Profile ScanKind = iota
	Centroid
)

func (k ScanKind) String() string {
	if k == Centroid {
		return "centroid"
	}
	return "profile"
}

// RawPeak is one detected peak within a scan, as returned by the reader.
// Mass is the observed m/z, not the monoisotopic mass. Charge is 0 when
// undetermined. Profile peaks only carry Mass and Intensity.
type RawPeak struct {
	Mass          float64
	Intensity     float64
	Resolution    float64
	Baseline      float64
	Noise         float64
	Charge        float64
	SignalToNoise float64
}

// ScanRecord holds the peaks of one scan that passed the filters.
// MaxIntensity is the maximum raw intensity before filtering and is the
// denominator for relative intensities.
type ScanRecord struct {
	ScanNumber   int
	ScanTime     float64 // retention time, minutes
	Peaks        []RawPeak
	MaxIntensity float64
}

// FilterConfig holds the thresholds applied to each peak
type FilterConfig struct {
	MinIntensity     float64
	MinRelIntensity  float64 // percentage, 0-99
	MinScan          int
	MaxScan          int
	MinMz            float64
	MaxMz            float64
	MinSignalToNoise float64
}

// DefaultFilter returns a filter that keeps every peak of every scan
func DefaultFilter() FilterConfig {
	return FilterConfig{
		MinScan: UnboundedScan,
		MaxScan: UnboundedScan,
		MaxMz:   DefaultMaxMz,
	}
}

// RelIntensityRatio returns the relative intensity threshold as a value between 0 and 1
func (f FilterConfig) RelIntensityRatio() float64 {
	return f.MinRelIntensity / 100
}

var (
	// ErrScanRange means MinScan is larger than MaxScan
	ErrScanRange = errors.New("minScan cannot be greater than maxScan")
	// ErrMzRange means MinMz is larger than MaxMz
	ErrMzRange = errors.New("minMz cannot be greater than maxMz")
	// ErrRelIntensity means the relative intensity is outside 0-99
	ErrRelIntensity = errors.New("minimum relative intensity must be between 0 and 99")
	// ErrInvalidThreshold means a threshold is NaN
	ErrInvalidThreshold = errors.New("threshold is not a number")
)

// Validate checks the filter before extraction starts
func (f FilterConfig) Validate() error {
	var errs []error
	if f.MaxScan >= 0 && f.MinScan > f.MaxScan {
		errs = append(errs, fmt.Errorf("%w: %d > %d", ErrScanRange, f.MinScan, f.MaxScan))
	}
	if f.MinMz > f.MaxMz {
		errs = append(errs, fmt.Errorf("%w: %g > %g", ErrMzRange, f.MinMz, f.MaxMz))
	}
	if f.MinRelIntensity < 0 || f.MinRelIntensity > 99 {
		errs = append(errs, fmt.Errorf("%w: %g", ErrRelIntensity, f.MinRelIntensity))
	}
	thresholds := []struct {
		name  string
		value float64
	}{
		{"minIntensity", f.MinIntensity},
		{"minRelIntensity", f.MinRelIntensity},
		{"minMz", f.MinMz},
		{"maxMz", f.MaxMz},
		{"minSignalToNoise", f.MinSignalToNoise},
	}
	for _, th := range thresholds {
		if math.IsNaN(th.value) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidThreshold, th.name))
		}
	}
	return errors.Join(errs...)
}

// Keep reports whether a peak passes all thresholds. maxIntensity is the
// raw scan maximum before any filtering.
func (f FilterConfig) Keep(p RawPeak, maxIntensity float64) bool {
	return p.Intensity >= f.MinIntensity &&
		p.Intensity/maxIntensity >= f.RelIntensityRatio() &&
		p.Mass >= f.MinMz &&
		p.Mass <= f.MaxMz &&
		p.SignalToNoise >= f.MinSignalToNoise
}

// EffectiveRange is the inclusive scan range an extraction covers,
// resolved once against the file's scan bounds
type EffectiveRange struct {
	First int
	Last  int
}

// Len returns the number of scans in the range
func (r EffectiveRange) Len() int {
	if r.Last < r.First {
		return 0
	}
	return r.Last - r.First + 1
}

// ResolveRange clamps the configured scan bounds to the file's first and
// last scan. A negative MaxScan means the last scan of the file.
func ResolveRange(f FilterConfig, fileFirst, fileLast int) EffectiveRange {
	r := EffectiveRange{First: f.MinScan, Last: f.MaxScan}
	if r.First < fileFirst {
		r.First = fileFirst
	}
	if r.Last > fileLast || r.Last < 0 {
		r.Last = fileLast
	}
	return r
}

// MaxIntensity returns the highest raw intensity of peaks, 0 when there
// are none. It is the denominator of the relative intensity filter.
func MaxIntensity(peaks []RawPeak) float64 {
	if len(peaks) == 0 {
		return 0
	}
	v := make([]float64, len(peaks))
	for i, p := range peaks {
		v[i] = p.Intensity
	}
	return floats.Max(v)
}

func isZero(v float64) bool {
	return scalar.EqualWithinAbs(v, 0, zeroEpsilon)
}
