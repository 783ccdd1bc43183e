package peakdata

import (
	"errors"
	"math"
	"testing"
)

func TestValidate(t *testing.T) {
	type test struct {
		name string
		mod  func(*FilterConfig)
		want []error
	}
	tests := []test{
		{"default", func(f *FilterConfig) {}, nil},
		{"unbounded max", func(f *FilterConfig) { f.MinScan = 50 }, nil},
		{"scan order", func(f *FilterConfig) { f.MinScan, f.MaxScan = 10, 5 }, []error{ErrScanRange}},
		{"mz order", func(f *FilterConfig) { f.MinMz, f.MaxMz = 500, 100 }, []error{ErrMzRange}},
		{"rel too high", func(f *FilterConfig) { f.MinRelIntensity = 100 }, []error{ErrRelIntensity}},
		{"rel negative", func(f *FilterConfig) { f.MinRelIntensity = -1 }, []error{ErrRelIntensity}},
		{"nan", func(f *FilterConfig) { f.MinIntensity = math.NaN() }, []error{ErrInvalidThreshold}},
		{"several", func(f *FilterConfig) {
			f.MinScan, f.MaxScan = 3, 2
			f.MinMz, f.MaxMz = 2, 1
		}, []error{ErrScanRange, ErrMzRange}},
	}
	for _, tst := range tests {
		f := DefaultFilter()
		tst.mod(&f)
		err := f.Validate()
		if tst.want == nil && err != nil {
			t.Errorf("%s: unexpected error %v", tst.name, err)
		}
		for _, w := range tst.want {
			if !errors.Is(err, w) {
				t.Errorf("%s: error %v, should contain %v", tst.name, err, w)
			}
		}
	}
}

func TestResolveRange(t *testing.T) {
	type test struct {
		min, max    int
		first, last int
		want        EffectiveRange
	}
	tests := []test{
		{-1, -1, 1, 100, EffectiveRange{1, 100}},
		{0, 500, 1, 100, EffectiveRange{1, 100}},
		{10, 20, 1, 100, EffectiveRange{10, 20}},
		{-1, 20, 5, 100, EffectiveRange{5, 20}},
		{50, -1, 1, 100, EffectiveRange{50, 100}},
		{1, 100, 1, 0, EffectiveRange{1, 0}},
	}
	for _, tst := range tests {
		f := DefaultFilter()
		f.MinScan, f.MaxScan = tst.min, tst.max
		got := ResolveRange(f, tst.first, tst.last)
		if got != tst.want {
			t.Errorf("ResolveRange(%d:%d in %d:%d) = %v, should be %v",
				tst.min, tst.max, tst.first, tst.last, got, tst.want)
		}
		if f.MinScan != tst.min || f.MaxScan != tst.max {
			t.Errorf("ResolveRange modified the filter")
		}
	}
	if n := (EffectiveRange{1, 0}).Len(); n != 0 {
		t.Errorf("Len of empty range: %d, should be 0", n)
	}
	if n := (EffectiveRange{3, 7}).Len(); n != 5 {
		t.Errorf("Len: %d, should be 5", n)
	}
}

func TestKeepConjunction(t *testing.T) {
	f := FilterConfig{
		MinIntensity:     10,
		MinRelIntensity:  20,
		MinScan:          UnboundedScan,
		MaxScan:          UnboundedScan,
		MinMz:            100,
		MaxMz:            500,
		MinSignalToNoise: 3,
	}
	pass := RawPeak{Mass: 300, Intensity: 50, SignalToNoise: 5}
	const maxIntensity = 100
	if !f.Keep(pass, maxIntensity) {
		t.Fatalf("Keep(%v): false, should be true", pass)
	}

	fails := map[string]RawPeak{
		"intensity":          {Mass: 300, Intensity: 9, SignalToNoise: 5},
		"relative intensity": {Mass: 300, Intensity: 19, SignalToNoise: 5},
		"low mz":             {Mass: 99.9, Intensity: 50, SignalToNoise: 5},
		"high mz":            {Mass: 500.1, Intensity: 50, SignalToNoise: 5},
		"signal to noise":    {Mass: 300, Intensity: 50, SignalToNoise: 2.9},
	}
	for name, p := range fails {
		if f.Keep(p, maxIntensity) {
			t.Errorf("Keep with failing %s: true, should be false", name)
		}
	}

	bounds := []RawPeak{
		{Mass: 100, Intensity: 20, SignalToNoise: 3},
		{Mass: 500, Intensity: 20, SignalToNoise: 3},
	}
	for _, p := range bounds {
		if !f.Keep(p, maxIntensity) {
			t.Errorf("Keep(%v) on the bounds: false, should be true", p)
		}
	}
}

func TestMaxIntensity(t *testing.T) {
	type test struct {
		peaks []RawPeak
		want  float64
	}
	tests := []test{
		{nil, 0},
		{[]RawPeak{{Mass: 100, Intensity: 0}}, 0},
		{[]RawPeak{{Mass: 200, Intensity: 100}, {Mass: 100, Intensity: 50}}, 100},
		{[]RawPeak{{Mass: 1, Intensity: 3}, {Mass: 2, Intensity: 7.5}, {Mass: 3, Intensity: 7}}, 7.5},
	}
	for _, tst := range tests {
		if got := MaxIntensity(tst.peaks); got != tst.want {
			t.Errorf("MaxIntensity(%v): %g, should be %g", tst.peaks, got, tst.want)
		}
	}
}
