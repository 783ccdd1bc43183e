package peakdata

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Header holds the output column names in output order
var Header = []string{
	"Scan Number",
	"RT",
	"Mass",
	"Intensity",
	"Resolution",
	"Baseline",
	"Noise",
	"Charge",
	"SignalToNoise",
	"RelativeIntensity",
}

// OutputRow is one peak as written to the output
type OutputRow struct {
	ScanNumber        int
	ScanTime          float64
	Mass              float64
	Intensity         float64
	Resolution        float64
	Baseline          float64
	Noise             float64
	Charge            float64
	SignalToNoise     float64
	RelativeIntensity float64
}

// Rows converts a scan record into output rows, ordered by mass and then
// by intensity. The record itself is left untouched.
func Rows(rec *ScanRecord) []OutputRow {
	if rec == nil || len(rec.Peaks) == 0 {
		return []OutputRow{}
	}
	peaks := make([]RawPeak, len(rec.Peaks))
	copy(peaks, rec.Peaks)
	sort.SliceStable(peaks, func(i, j int) bool {
		if peaks[i].Mass != peaks[j].Mass {
			return peaks[i].Mass < peaks[j].Mass
		}
		return peaks[i].Intensity < peaks[j].Intensity
	})

	maxIntensity := rec.MaxIntensity
	if isZero(maxIntensity) {
		maxIntensity = 1
	}
	rows := make([]OutputRow, len(peaks))
	for i, p := range peaks {
		rows[i] = OutputRow{
			ScanNumber:        rec.ScanNumber,
			ScanTime:          rec.ScanTime,
			Mass:              p.Mass,
			Intensity:         p.Intensity,
			Resolution:        p.Resolution,
			Baseline:          p.Baseline,
			Noise:             p.Noise,
			Charge:            p.Charge,
			SignalToNoise:     p.SignalToNoise,
			RelativeIntensity: p.Intensity / maxIntensity * 100,
		}
	}
	return rows
}

// Fields formats the row in Header order
func (r OutputRow) Fields() []string {
	return []string{
		strconv.Itoa(r.ScanNumber),
		formatFloat(r.ScanTime, 4),
		formatFloat(r.Mass, 6),
		formatFloat(r.Intensity, 4),
		formatFloat(r.Resolution, -1),
		formatFloat(r.Baseline, 4),
		formatFloat(r.Noise, 4),
		formatFloat(r.Charge, -1),
		formatFloat(r.SignalToNoise, 4),
		formatFloat(r.RelativeIntensity, 4),
	}
}

// formatFloat writes v with at most prec decimals and no trailing zeros.
// prec -1 uses the shortest representation. Values that are zero, or
// round to zero, are written as "0".
func formatFloat(v float64, prec int) string {
	if isZero(v) {
		return "0"
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}
