// Package instrument exposes an acquisition file as a peakdata.Reader.
// Spectra are numbered from 1 in file order.
package instrument

import (
	"errors"
	"fmt"

	"github.com/524D/peakexport/internal/mzml"
	"github.com/524D/peakexport/internal/peakdata"
)

// ErrClosed is returned when a closed file is accessed
var ErrClosed = errors.New("file already closed")

// File is an opened acquisition
type File struct {
	path   string
	mzML   mzml.MzML
	closed bool
}

// Open reads the mzML (or gzip compressed mzML) file at path
func Open(path string) (*File, error) {
	m, err := mzml.Open(path)
	if err != nil {
		return nil, err
	}
	return &File{path: path, mzML: m}, nil
}

// Path returns the path the file was opened from
func (f *File) Path() string {
	return f.path
}

// ScanCount returns the number of scans in the file
func (f *File) ScanCount() int {
	if f.closed {
		return 0
	}
	return f.mzML.NumSpecs()
}

// ScanRange returns the first and last scan number
func (f *File) ScanRange() (first, last int, err error) {
	if f.closed {
		return 0, 0, ErrClosed
	}
	return 1, f.mzML.NumSpecs(), nil
}

func (f *File) index(scanNumber int) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	return scanNumber - 1, nil
}

// ScanKind tells whether the scan holds centroid or profile data
func (f *File) ScanKind(scanNumber int) (peakdata.ScanKind, error) {
	i, err := f.index(scanNumber)
	if err != nil {
		return peakdata.Profile, err
	}
	centroid, err := f.mzML.Centroid(i)
	if err != nil {
		return peakdata.Profile, err
	}
	if centroid {
		return peakdata.Centroid, nil
	}
	return peakdata.Profile, nil
}

// LabelPeaks returns the peaks of a scan including the label data
// arrays present in the file
func (f *File) LabelPeaks(scanNumber int) ([]peakdata.RawPeak, error) {
	peaks, err := f.read(scanNumber)
	if err != nil {
		return nil, err
	}
	raw := make([]peakdata.RawPeak, len(peaks))
	for i, p := range peaks {
		raw[i] = peakdata.RawPeak{
			Mass:          p.Mz,
			Intensity:     p.Intens,
			Resolution:    p.Resolution,
			Baseline:      p.Baseline,
			Noise:         p.Noise,
			Charge:        p.Charge,
			SignalToNoise: p.SN,
		}
	}
	return raw, nil
}

// ProfilePeaks returns mass and intensity of the points of a scan
func (f *File) ProfilePeaks(scanNumber int) ([]peakdata.RawPeak, error) {
	peaks, err := f.read(scanNumber)
	if err != nil {
		return nil, err
	}
	raw := make([]peakdata.RawPeak, len(peaks))
	for i, p := range peaks {
		raw[i] = peakdata.RawPeak{Mass: p.Mz, Intensity: p.Intens}
	}
	return raw, nil
}

func (f *File) read(scanNumber int) ([]mzml.Peak, error) {
	i, err := f.index(scanNumber)
	if err != nil {
		return nil, err
	}
	peaks, err := f.mzML.ReadScan(i)
	if errors.Is(err, mzml.ErrMalformedScan) {
		return nil, fmt.Errorf("%w: %v", peakdata.ErrNoData, err)
	}
	return peaks, err
}

// RetentionTime returns the scan start time in minutes, -1 when the
// file does not record it
func (f *File) RetentionTime(scanNumber int) (float64, error) {
	i, err := f.index(scanNumber)
	if err != nil {
		return 0, err
	}
	return f.mzML.RetentionTime(i)
}

// ScanID returns the native identifier of a scan
func (f *File) ScanID(scanNumber int) (string, error) {
	i, err := f.index(scanNumber)
	if err != nil {
		return "", err
	}
	return f.mzML.ScanID(i)
}

// MSLevel returns the MS level of a scan
func (f *File) MSLevel(scanNumber int) (int, error) {
	i, err := f.index(scanNumber)
	if err != nil {
		return 0, err
	}
	return f.mzML.MSLevel(i)
}

// Close releases the file. Closing twice is allowed.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	err := f.mzML.Close()
	f.mzML = mzml.MzML{}
	return err
}

var _ peakdata.Reader = (*File)(nil)
