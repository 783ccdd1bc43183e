package peakdata

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractAll(t *testing.T) {
	r := threeScans()
	ev := &recorder{}
	e, err := NewExtractor(r, DefaultFilter(), ev)
	if err != nil {
		t.Fatalf("NewExtractor: error return %v", err)
	}
	got, err := collect(e)
	if err != nil {
		t.Fatalf("extract: error return %v", err)
	}
	want := []ScanRecord{
		{ScanNumber: 1, ScanTime: 0.5, MaxIntensity: 100,
			Peaks: []RawPeak{{Mass: 200, Intensity: 100}, {Mass: 100, Intensity: 50}}},
		{ScanNumber: 3, ScanTime: 1.5, MaxIntensity: 1000,
			Peaks: []RawPeak{{Mass: 300.5, Intensity: 1000, Resolution: 60000, Baseline: 1.5,
				Noise: 2, Charge: 2, SignalToNoise: 12.5}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	// The all-zero scan is skipped silently
	if len(ev.warnings) != 0 || len(ev.errors) != 0 {
		t.Errorf("unexpected events: warnings %v, errors %v", ev.warnings, ev.errors)
	}
	if rng := e.Range(); rng != (EffectiveRange{1, 3}) {
		t.Errorf("Range: %v, should be 1:3", rng)
	}
}

func TestExtractRelativeIntensity(t *testing.T) {
	f := DefaultFilter()
	f.MinRelIntensity = 60
	e, err := NewExtractor(threeScans(), f, nil)
	if err != nil {
		t.Fatalf("NewExtractor: error return %v", err)
	}
	got, err := collect(e)
	if err != nil {
		t.Fatalf("extract: error return %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, should be 2", len(got))
	}
	want := []RawPeak{{Mass: 200, Intensity: 100}}
	if diff := cmp.Diff(want, got[0].Peaks); diff != "" {
		t.Errorf("scan 1 peaks mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractPreFilterMaximum(t *testing.T) {
	// The denominator stays the raw maximum even when the mz filter drops
	// the most intense peak.
	f := DefaultFilter()
	f.MaxMz = 150
	f.MinRelIntensity = 60
	e, err := NewExtractor(threeScans(), f, nil)
	if err != nil {
		t.Fatalf("NewExtractor: error return %v", err)
	}
	got, err := collect(e)
	if err != nil {
		t.Fatalf("extract: error return %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d records, should be 0: %v", len(got), got)
	}

	f.MinRelIntensity = 0
	e, _ = NewExtractor(threeScans(), f, nil)
	got, _ = collect(e)
	if len(got) != 1 || got[0].MaxIntensity != 100 {
		t.Errorf("records %v, should hold scan 1 with MaxIntensity 100", got)
	}
}

func TestExtractRange(t *testing.T) {
	r := &fakeReader{first: 5}
	for i := 0; i < 10; i++ {
		r.scans = append(r.scans, fakeScan{peaks: []RawPeak{{Mass: 100, Intensity: 1}}})
	}
	f := DefaultFilter()
	f.MinScan = 8
	f.MaxScan = 10
	e, err := NewExtractor(r, f, nil)
	if err != nil {
		t.Fatalf("NewExtractor: error return %v", err)
	}
	got, err := collect(e)
	if err != nil {
		t.Fatalf("extract: error return %v", err)
	}
	var scans []int
	for _, rec := range got {
		scans = append(scans, rec.ScanNumber)
	}
	if diff := cmp.Diff([]int{8, 9, 10}, scans); diff != "" {
		t.Errorf("scan numbers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{8, 9, 10}, r.fetched); diff != "" {
		t.Errorf("fetched scans mismatch (-want +got):\n%s", diff)
	}

	f.MinScan = 0
	f.MaxScan = 1000
	e, _ = NewExtractor(r, f, nil)
	if rng := e.Range(); rng != (EffectiveRange{5, 14}) {
		t.Errorf("Range: %v, should be 5:14", rng)
	}
}

func TestExtractLazy(t *testing.T) {
	r := threeScans()
	e, err := NewExtractor(r, DefaultFilter(), nil)
	if err != nil {
		t.Fatalf("NewExtractor: error return %v", err)
	}
	if len(r.fetched) != 0 {
		t.Errorf("scans fetched before Next: %v", r.fetched)
	}
	if !e.Next() {
		t.Fatalf("Next: false, should be true")
	}
	if diff := cmp.Diff([]int{1}, r.fetched); diff != "" {
		t.Errorf("fetched scans mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractNoData(t *testing.T) {
	r := threeScans()
	r.scans[0].peakErr = ErrNoData
	r.scans[1].peaks = nil
	ev := &recorder{}
	e, err := NewExtractor(r, DefaultFilter(), ev)
	if err != nil {
		t.Fatalf("NewExtractor: error return %v", err)
	}
	got, err := collect(e)
	if err != nil {
		t.Fatalf("extract: error return %v", err)
	}
	if len(got) != 1 || got[0].ScanNumber != 3 {
		t.Errorf("records %v, should only hold scan 3", got)
	}
	if diff := cmp.Diff([]int{1, 2}, ev.warnings); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractReaderFault(t *testing.T) {
	fault := errors.New("device error")
	r := threeScans()
	r.scans[2].rtErr = fault
	e, err := NewExtractor(r, DefaultFilter(), nil)
	if err != nil {
		t.Fatalf("NewExtractor: error return %v", err)
	}
	got, err := collect(e)
	if len(got) != 1 {
		t.Errorf("got %d records before the fault, should be 1", len(got))
	}
	if !errors.Is(err, fault) {
		t.Errorf("Err: %v, should wrap %v", err, fault)
	}
	var se *ScanError
	if !errors.As(err, &se) || se.Scan != 3 {
		t.Errorf("Err: %v, should be a ScanError for scan 3", err)
	}
	if e.Next() {
		t.Errorf("Next after fault: true, should be false")
	}
}

func TestExtractRangeFailure(t *testing.T) {
	r := threeScans()
	r.rangeErr = errors.New("no index")
	ev := &recorder{}
	e, err := NewExtractor(r, DefaultFilter(), ev)
	if err != nil {
		t.Fatalf("NewExtractor: error return %v", err)
	}
	if e.Next() {
		t.Errorf("Next: true, should be false")
	}
	if e.Err() != nil {
		t.Errorf("Err: %v, should be nil", e.Err())
	}
	if len(ev.errors) != 1 {
		t.Errorf("got %d error events, should be 1", len(ev.errors))
	}
	if e.Range().Len() != 0 {
		t.Errorf("Range: %v, should be empty", e.Range())
	}
}

func TestExtractInvalidFilter(t *testing.T) {
	f := DefaultFilter()
	f.MinMz = 20
	f.MaxMz = 10
	r := threeScans()
	_, err := NewExtractor(r, f, nil)
	if !errors.Is(err, ErrMzRange) {
		t.Errorf("NewExtractor: error return %v, should be ErrMzRange", err)
	}
	if len(r.fetched) != 0 {
		t.Errorf("scans fetched with an invalid filter: %v", r.fetched)
	}
}

func TestExtractProfileSignalToNoise(t *testing.T) {
	f := DefaultFilter()
	f.MinSignalToNoise = 1
	ev := &recorder{}
	e, err := NewExtractor(threeScans(), f, ev)
	if err != nil {
		t.Fatalf("NewExtractor: error return %v", err)
	}
	got, err := collect(e)
	if err != nil {
		t.Fatalf("extract: error return %v", err)
	}
	if len(got) != 1 || got[0].ScanNumber != 3 {
		t.Errorf("records %v, should only hold centroid scan 3", got)
	}
	// Warned once, for the first profile scan
	if diff := cmp.Diff([]int{1}, ev.warnings); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
}
