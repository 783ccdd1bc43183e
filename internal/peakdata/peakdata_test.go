package peakdata

import (
	"errors"
	"fmt"
)

// Shared fakes for the package tests

type fakeScan struct {
	kind    ScanKind
	peaks   []RawPeak
	rt      float64
	peakErr error
	kindErr error
	rtErr   error
}

type fakeReader struct {
	first    int
	scans    []fakeScan
	rangeErr error
	fetched  []int
}

func (r *fakeReader) ScanRange() (int, int, error) {
	if r.rangeErr != nil {
		return 0, 0, r.rangeErr
	}
	return r.first, r.first + len(r.scans) - 1, nil
}

func (r *fakeReader) scan(n int) (*fakeScan, error) {
	i := n - r.first
	if i < 0 || i >= len(r.scans) {
		return nil, fmt.Errorf("scan %d out of range", n)
	}
	return &r.scans[i], nil
}

func (r *fakeReader) ScanKind(n int) (ScanKind, error) {
	s, err := r.scan(n)
	if err != nil {
		return Profile, err
	}
	return s.kind, s.kindErr
}

func (r *fakeReader) peaks(n int) ([]RawPeak, error) {
	r.fetched = append(r.fetched, n)
	s, err := r.scan(n)
	if err != nil {
		return nil, err
	}
	if s.peakErr != nil {
		return nil, s.peakErr
	}
	p := make([]RawPeak, len(s.peaks))
	copy(p, s.peaks)
	return p, nil
}

func (r *fakeReader) LabelPeaks(n int) ([]RawPeak, error) {
	return r.peaks(n)
}

func (r *fakeReader) ProfilePeaks(n int) ([]RawPeak, error) {
	p, err := r.peaks(n)
	for i := range p {
		p[i] = RawPeak{Mass: p[i].Mass, Intensity: p[i].Intensity}
	}
	return p, err
}

func (r *fakeReader) RetentionTime(n int) (float64, error) {
	s, err := r.scan(n)
	if err != nil {
		return 0, err
	}
	return s.rt, s.rtErr
}

type progressEvent struct {
	Message string
	Percent float64
}

type recorder struct {
	progress []progressEvent
	warnings []int
	errors   []string
}

func (r *recorder) Progress(message string, percent float64) {
	r.progress = append(r.progress, progressEvent{message, percent})
}

func (r *recorder) Warning(message string, scan int) {
	r.warnings = append(r.warnings, scan)
}

func (r *recorder) Error(message string, cause error) {
	r.errors = append(r.errors, message)
}

// threeScans has two peaks in scan 1, only zero intensities in scan 2
// and a single labelled peak in scan 3
func threeScans() *fakeReader {
	return &fakeReader{
		first: 1,
		scans: []fakeScan{
			{kind: Profile, rt: 0.5, peaks: []RawPeak{{Mass: 200, Intensity: 100}, {Mass: 100, Intensity: 50}}},
			{kind: Profile, rt: 1.0, peaks: []RawPeak{{Mass: 150}, {Mass: 250}}},
			{kind: Centroid, rt: 1.5, peaks: []RawPeak{{
				Mass: 300.5, Intensity: 1000, Resolution: 60000, Baseline: 1.5, Noise: 2, Charge: 2, SignalToNoise: 12.5,
			}}},
		},
	}
}

func collect(seq Sequence) ([]ScanRecord, error) {
	var recs []ScanRecord
	for seq.Next() {
		recs = append(recs, *seq.Record())
	}
	return recs, seq.Err()
}

var errDisk = errors.New("disk full")

// memSink collects everything written and fails after failAfter writes
// when failAfter > 0
type memSink struct {
	data      []byte
	writes    int
	failAfter int
	closed    int
}

func (s *memSink) Write(p []byte) (int, error) {
	s.writes++
	if s.failAfter > 0 && s.writes > s.failAfter {
		return 0, errDisk
	}
	s.data = append(s.data, p...)
	return len(p), nil
}

func (s *memSink) Close() error {
	s.closed++
	return nil
}
