package testsupport

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Spectrum describes one spectrum of a synthetic mzML document.
// Optional label arrays are only written when non-nil.
type Spectrum struct {
	ID            string // defaults to "scan=<n>"
	Centroid      bool
	MSLevel       int     // omitted when 0
	RetentionTime float64 // minutes
	RTInSeconds   bool    // write the retention time in seconds instead of minutes
	NoRT          bool

	Mz         []float64
	Intensity  []float64
	Charge     []float64
	SN         []float64
	Resolution []float64
	Baseline   []float64
	Noise      []float64

	Zlib   bool
	Bits64 bool

	// ArrayLength overrides defaultArrayLength when > 0
	ArrayLength int
	// BadBinary replaces the intensity array payload with undecodable text
	BadBinary bool
}

// MzMLDocument renders the spectra as a minimal mzML 1.1 document.
func MzMLDocument(specs []Spectrum) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString(`<mzML xmlns="http://psi.hupo.org/ms/mzml" version="1.1.0">` + "\n")
	b.WriteString(`<run id="test">` + "\n")
	fmt.Fprintf(&b, `<spectrumList count="%d">`+"\n", len(specs))
	for i, s := range specs {
		id := s.ID
		if id == "" {
			id = fmt.Sprintf("scan=%d", i+1)
		}
		n := len(s.Mz)
		if s.ArrayLength > 0 {
			n = s.ArrayLength
		}
		fmt.Fprintf(&b, `<spectrum index="%d" id="%s" defaultArrayLength="%d">`+"\n", i, id, n)
		if s.MSLevel > 0 {
			fmt.Fprintf(&b, `<cvParam cvRef="MS" accession="MS:1000511" name="ms level" value="%d"/>`+"\n", s.MSLevel)
		}
		if s.Centroid {
			b.WriteString(`<cvParam cvRef="MS" accession="MS:1000127" name="centroid spectrum" value=""/>` + "\n")
		} else {
			b.WriteString(`<cvParam cvRef="MS" accession="MS:1000128" name="profile spectrum" value=""/>` + "\n")
		}
		b.WriteString(`<scanList count="1"><scan>` + "\n")
		if !s.NoRT {
			if s.RTInSeconds {
				fmt.Fprintf(&b, `<cvParam cvRef="MS" accession="MS:1000016" name="scan start time" value="%g" unitCvRef="UO" unitAccession="UO:0000010" unitName="second"/>`+"\n",
					s.RetentionTime*60)
			} else {
				fmt.Fprintf(&b, `<cvParam cvRef="MS" accession="MS:1000016" name="scan start time" value="%g" unitCvRef="UO" unitAccession="UO:0000031" unitName="minute"/>`+"\n",
					s.RetentionTime)
			}
		}
		b.WriteString(`</scan></scanList>` + "\n")

		arrays := []struct {
			accession string
			name      string
			values    []float64
		}{
			{"MS:1000514", "m/z array", s.Mz},
			{"MS:1000515", "intensity array", s.Intensity},
			{"MS:1000516", "charge array", s.Charge},
			{"MS:1000517", "signal to noise array", s.SN},
			{"MS:1002529", "resolution array", s.Resolution},
			{"MS:1002530", "baseline array", s.Baseline},
			{"MS:1002742", "noise array", s.Noise},
		}
		count := 0
		for _, a := range arrays {
			if a.values != nil {
				count++
			}
		}
		fmt.Fprintf(&b, `<binaryDataArrayList count="%d">`+"\n", count)
		for _, a := range arrays {
			if a.values == nil {
				continue
			}
			payload := EncodeBinary(a.values, s.Zlib, s.Bits64)
			if s.BadBinary && a.accession == "MS:1000515" {
				payload = "!!not base64!!"
			}
			fmt.Fprintf(&b, `<binaryDataArray encodedLength="%d">`+"\n", len(payload))
			if s.Bits64 {
				b.WriteString(`<cvParam cvRef="MS" accession="MS:1000523" name="64-bit float" value=""/>` + "\n")
			} else {
				b.WriteString(`<cvParam cvRef="MS" accession="MS:1000521" name="32-bit float" value=""/>` + "\n")
			}
			if s.Zlib {
				b.WriteString(`<cvParam cvRef="MS" accession="MS:1000574" name="zlib compression" value=""/>` + "\n")
			} else {
				b.WriteString(`<cvParam cvRef="MS" accession="MS:1000576" name="no compression" value=""/>` + "\n")
			}
			fmt.Fprintf(&b, `<cvParam cvRef="MS" accession="%s" name="%s" value=""/>`+"\n", a.accession, a.name)
			fmt.Fprintf(&b, "<binary>%s</binary>\n", payload)
			b.WriteString("</binaryDataArray>\n")
		}
		b.WriteString("</binaryDataArrayList>\n")
		b.WriteString("</spectrum>\n")
	}
	b.WriteString("</spectrumList>\n</run>\n</mzML>\n")
	return []byte(b.String())
}

// EncodeBinary packs values the way mzML stores binary data arrays:
// little-endian floats, optionally zlib compressed, base64 encoded.
func EncodeBinary(values []float64, zlibCompression bool, bits64 bool) string {
	var raw []byte
	if bits64 {
		raw = make([]byte, len(values)*8)
		for i, v := range values {
			binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(v))
		}
	} else {
		raw = make([]byte, len(values)*4)
		for i, v := range values {
			binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(float32(v)))
		}
	}
	if zlibCompression {
		var buf bytes.Buffer
		z := zlib.NewWriter(&buf)
		z.Write(raw)
		z.Close() // zlib writer must explicitly be closed here, otherwise result is invalid
		raw = buf.Bytes()
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// WriteMzML writes a synthetic mzML document into dir and returns its path.
// Names ending in .gz are gzip compressed.
func WriteMzML(t testing.TB, dir, name string, specs []Spectrum) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	doc := MzMLDocument(specs)
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		var buf bytes.Buffer
		z := gzip.NewWriter(&buf)
		if _, err := z.Write(doc); err != nil {
			t.Fatalf("gzip %s: %v", path, err)
		}
		if err := z.Close(); err != nil {
			t.Fatalf("gzip %s: %v", path, err)
		}
		doc = buf.Bytes()
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ThreeScanRun is the acquisition used across package tests: scan 1 has
// two peaks, scan 2 only zero intensities and scan 3 a single centroid peak
// with label data.
func ThreeScanRun() []Spectrum {
	return []Spectrum{
		{RetentionTime: 0.5, Mz: []float64{200, 100}, Intensity: []float64{100, 50}},
		{RetentionTime: 1.0, Mz: []float64{150, 250}, Intensity: []float64{0, 0}},
		{
			Centroid:      true,
			RetentionTime: 1.5,
			Bits64:        true,
			Zlib:          true,
			Mz:            []float64{300.123456},
			Intensity:     []float64{1234.5},
			Charge:        []float64{2},
			SN:            []float64{12.5},
			Resolution:    []float64{60000},
			Baseline:      []float64{1.25},
			Noise:         []float64{3.5},
		},
	}
}

// ThreeScanRunOutput is the export of ThreeScanRun without filters
const ThreeScanRunOutput = "Scan Number\tRT\tMass\tIntensity\tResolution\tBaseline\tNoise\tCharge\tSignalToNoise\tRelativeIntensity\n" +
	"1\t0.5\t100\t50\t0\t0\t0\t0\t0\t50\n" +
	"1\t0.5\t200\t100\t0\t0\t0\t0\t0\t100\n" +
	"3\t1.5\t300.123456\t1234.5\t60000\t1.25\t3.5\t2\t12.5\t100\n"
