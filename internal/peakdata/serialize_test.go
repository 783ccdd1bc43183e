package peakdata

import (
	"math"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRowsExample(t *testing.T) {
	rec := &ScanRecord{
		ScanNumber:   1,
		ScanTime:     0.5,
		MaxIntensity: 100,
		Peaks:        []RawPeak{{Mass: 200, Intensity: 100}, {Mass: 100, Intensity: 50}},
	}
	got := Rows(rec)
	want := []OutputRow{
		{ScanNumber: 1, ScanTime: 0.5, Mass: 100, Intensity: 50, RelativeIntensity: 50},
		{ScanNumber: 1, ScanTime: 0.5, Mass: 200, Intensity: 100, RelativeIntensity: 100},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rows mismatch (-want +got):\n%s", diff)
	}
	// Input order is untouched
	if rec.Peaks[0].Mass != 200 {
		t.Errorf("Rows reordered the record peaks")
	}
}

func TestRowsOrdering(t *testing.T) {
	rec := &ScanRecord{
		ScanNumber:   7,
		MaxIntensity: 80,
		Peaks: []RawPeak{
			{Mass: 300, Intensity: 5},
			{Mass: 100, Intensity: 40},
			{Mass: 100, Intensity: 10},
			{Mass: 200, Intensity: 80},
			{Mass: 100, Intensity: 20},
		},
	}
	rows := Rows(rec)
	ok := sort.SliceIsSorted(rows, func(i, j int) bool {
		if rows[i].Mass != rows[j].Mass {
			return rows[i].Mass < rows[j].Mass
		}
		return rows[i].Intensity < rows[j].Intensity
	})
	if !ok {
		t.Errorf("rows not ordered by mass and intensity: %v", rows)
	}
	for _, r := range rows {
		want := r.Intensity / 80 * 100
		if r.RelativeIntensity != want {
			t.Errorf("relative intensity of %v: %f, should be %f", r, r.RelativeIntensity, want)
		}
	}
}

func TestRowsZeroMaximum(t *testing.T) {
	rec := &ScanRecord{
		ScanNumber:   2,
		MaxIntensity: 0,
		Peaks:        []RawPeak{{Mass: 100, Intensity: 0.5}},
	}
	rows := Rows(rec)
	if len(rows) != 1 || rows[0].RelativeIntensity != 50 {
		t.Errorf("Rows: %v, should use 1 as denominator", rows)
	}
	if n := len(Rows(&ScanRecord{})); n != 0 {
		t.Errorf("Rows of empty record: %d rows", n)
	}
	if n := len(Rows(nil)); n != 0 {
		t.Errorf("Rows of nil record: %d rows", n)
	}
}

func TestFormatFloat(t *testing.T) {
	type test struct {
		v    float64
		prec int
		want string
	}
	tests := []test{
		{12.5, 4, "12.5"},
		{100, 4, "100"},
		{0.123456789, 4, "0.1235"},
		{300.123456, 6, "300.123456"},
		{300.1234564, 6, "300.123456"},
		{0, 4, "0"},
		{math.SmallestNonzeroFloat64, 4, "0"},
		{-0.00001, 4, "0"},
		{0.00001, 4, "0"},
		{-2.5, 4, "-2.5"},
		{60000, -1, "60000"},
		{2, -1, "2"},
		{1.5, 4, "1.5"},
	}
	for _, tst := range tests {
		got := formatFloat(tst.v, tst.prec)
		if got != tst.want {
			t.Errorf("formatFloat(%g, %d) = %q, should be %q", tst.v, tst.prec, got, tst.want)
		}
	}
}

func TestFields(t *testing.T) {
	row := OutputRow{
		ScanNumber:        3,
		ScanTime:          1.5,
		Mass:              300.123456,
		Intensity:         1234.5,
		Resolution:        60000,
		Baseline:          1.25,
		Noise:             3.5,
		Charge:            2,
		SignalToNoise:     12.5,
		RelativeIntensity: 100,
	}
	want := []string{"3", "1.5", "300.123456", "1234.5", "60000", "1.25", "3.5", "2", "12.5", "100"}
	if diff := cmp.Diff(want, row.Fields()); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
	if len(row.Fields()) != len(Header) {
		t.Errorf("Fields has %d columns, Header %d", len(row.Fields()), len(Header))
	}
}
