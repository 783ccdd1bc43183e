package mzml

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/net/html/charset"
)

// spectrum is a complete spectrum element, only decoded in one piece when
// the document needs charset conversion
type spectrum struct {
	spectrumHeader
	BinaryDataArrayList binaryDataArrayList `xml:"binaryDataArrayList"`
}

// Read indexes the spectra of an mzML document. Only the spectrum headers
// and the position of each spectrum in src are kept, so src must stay
// readable for as long as peaks are read.
func Read(src io.ReaderAt) (MzML, error) {
	mzML := MzML{src: src}

	converted := false
	d := xml.NewDecoder(io.NewSectionReader(src, 0, math.MaxInt64))
	d.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		converted = true
		return charset.NewReaderLabel(label, input)
	}

	// We are only interested in the spectra, so skip over indexedmzML,
	// chromatograms and everything else
	var inMemory []*spectrumData
	seenRoot := false
	for {
		start := d.InputOffset()
		t, tokenErr := d.Token()
		if tokenErr != nil {
			if tokenErr == io.EOF {
				break
			}
			return mzML, tokenErr
		}
		se, ok := t.(xml.StartElement)
		if !ok {
			continue
		}
		switch {
		case se.Name.Local == "mzML" && se.Name.Space == mzMLNamespace:
			seenRoot = true
		case se.Name.Local == "spectrum" && seenRoot:
			// Offsets refer to the converted stream after a charset
			// change, so such documents keep their peak data in memory
			if converted {
				var s spectrum
				if err := d.DecodeElement(&s, &se); err != nil {
					return mzML, err
				}
				mzML.spectra = append(mzML.spectra, s.spectrumHeader)
				inMemory = append(inMemory, &spectrumData{BinaryDataArrayList: s.BinaryDataArrayList})
				continue
			}
			var h spectrumHeader
			if err := d.DecodeElement(&h, &se); err != nil {
				return mzML, err
			}
			h.start = start
			h.end = d.InputOffset()
			mzML.spectra = append(mzML.spectra, h)
		}
	}
	if !seenRoot {
		return mzML, ErrNotMzML
	}
	if converted {
		mzML.inMemory = inMemory
	}

	err := mzML.traverseScan()
	return mzML, err
}


// Kind of data stored in a binary data array
type arrayKind int

const (
	arrayOther arrayKind = iota
	arrayMz
	arrayIntensity
	arrayCharge
	arraySN
	arrayResolution
	arrayBaseline
	arrayNoise
)

// Numeric type of the values in a binary data array
type valueType int

const (
	float32Value valueType = iota // Default according to the mzML schema
	float64Value
	int32Value
	int64Value
)

func (v valueType) size() int {
	switch v {
	case float64Value, int64Value:
		return 8
	}
	return 4
}

// binaryDataPars decodes the CV terms in a mzML binarydata section
//
// CV Terms for binary data compression
// MS:1000574 zlib compression
// MS:1000576 No Compression
// MS:1002312 MS-Numpress linear prediction compression
// MS:1002313 MS-Numpress positive integer compression
// MS:1002314 MS-Numpress short logged float compression
// MS:1002746 MS-Numpress linear prediction compression followed by zlib compression
// MS:1002747 MS-Numpress positive integer compression followed by zlib compression
// MS:1002748 MS-Numpress short logged float compression followed by zlib compression
//
// CV Terms for binary data array types
// MS:1000514 m/z array
// MS:1000515 intensity array
// MS:1000516 charge array
// MS:1000517 signal to noise array
// MS:1002529 resolution array
// MS:1002530 baseline array
// MS:1002742 noise array
//
// CV Terms for binary-data-type
// MS:1000519 32-bit integer
// MS:1000521 32-bit float
// MS:1000522 64-bit integer
// MS:1000523 64-bit float
func binaryDataPars(binaryDataArray *binaryDataArray) (
	zlibCompression bool, vt valueType, kind arrayKind, err error) {
	for _, cvParam := range binaryDataArray.CvPar {
		switch cvParam.Accession {
		case `MS:1000574`:
			zlibCompression = true
		case `MS:1000514`:
			kind = arrayMz
		case `MS:1000515`:
			kind = arrayIntensity
		case `MS:1000516`:
			kind = arrayCharge
		case `MS:1000517`:
			kind = arraySN
		case `MS:1002529`:
			kind = arrayResolution
		case `MS:1002530`:
			kind = arrayBaseline
		case `MS:1002742`:
			kind = arrayNoise
		case `MS:1000519`:
			vt = int32Value
		case `MS:1000521`:
			vt = float32Value
		case `MS:1000522`:
			vt = int64Value
		case `MS:1000523`:
			vt = float64Value
		case `MS:1002312`, `MS:1002313`, `MS:1002314`,
			`MS:1002746`, `MS:1002747`, `MS:1002748`:
			err = fmt.Errorf("%w (CV term %s)", ErrUnsupportedCompression, cvParam.Accession)
		}
	}
	return zlibCompression, vt, kind, err
}

// decodeValues converts the raw little-endian bytes into float64 values
func decodeValues(data []byte, vt valueType) []float64 {
	size := vt.size()
	cnt := len(data) / size
	values := make([]float64, cnt)
	for i := 0; i < cnt; i++ {
		chunk := data[i*size:]
		switch vt {
		case float64Value:
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(chunk))
		case int64Value:
			values[i] = float64(int64(binary.LittleEndian.Uint64(chunk)))
		case int32Value:
			values[i] = float64(int32(binary.LittleEndian.Uint32(chunk)))
		default:
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(chunk)))
		}
	}
	return values
}

// decodedArray holds the values of one binary data array
type decodedArray struct {
	kind   arrayKind
	values []float64
}

func decodeArray(binaryDataArray *binaryDataArray) (decodedArray, error) {
	zlibCompression, vt, kind, err := binaryDataPars(binaryDataArray)
	if err != nil {
		return decodedArray{}, err
	}
	if kind == arrayOther {
		return decodedArray{kind: kind}, nil
	}
	data, err := base64.StdEncoding.DecodeString(binaryDataArray.Binary)
	if err != nil {
		return decodedArray{}, fmt.Errorf("%w: %v", ErrMalformedScan, err)
	}
	if zlibCompression {
		z, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return decodedArray{}, fmt.Errorf("%w: %v", ErrMalformedScan, err)
		}
		defer z.Close()
		d, err := io.ReadAll(z)
		if err != nil {
			return decodedArray{}, fmt.Errorf("%w: %v", ErrMalformedScan, err)
		}
		data = d
	}
	return decodedArray{kind: kind, values: decodeValues(data, vt)}, nil
}

// NumSpecs returns the number of spectra
func (f *MzML) NumSpecs() int {
	return len(f.spectra)
}

// RetentionTime returns the retention time of a spectrum in minutes,
// or -1 if the spectrum has no scan start time
func (f *MzML) RetentionTime(scanIndex int) (float64, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return 0.0, ErrInvalidScanIndex
	}
	for _, scan := range f.spectra[scanIndex].ScanList.Scan {
		for _, cvParam := range scan.CvPar {
			if cvParam.Accession == "MS:1000016" {
				retentionTime, err := strconv.ParseFloat(cvParam.Value, 64)
				if err != nil {
					return 0.0, err
				}
				switch cvParam.UnitAccession {
				case "UO:0000031", "MS:1000038": // minute
				case "UO:0000010", "": // second, the mzML default
					retentionTime /= 60
				default:
					return retentionTime, ErrUnknownUnit
				}
				return retentionTime, nil
			}
		}
	}
	return -1.0, nil
}

// spectrumData returns the binary data arrays of a spectrum
func (f *MzML) spectrumData(scanIndex int) (*spectrumData, error) {
	if f.inMemory != nil {
		return f.inMemory[scanIndex], nil
	}
	if f.src == nil {
		return nil, ErrClosed
	}
	h := &f.spectra[scanIndex]
	var data spectrumData
	d := xml.NewDecoder(io.NewSectionReader(f.src, h.start, h.end-h.start))
	if err := d.Decode(&data); err != nil {
		return nil, fmt.Errorf("read spectrum %s: %w", h.ID, err)
	}
	return &data, nil
}

// ReadScan reads a single scan
// n is the sequence number of the scan in the mzML file,
// This is not the same as the scan number that is specified
// in the mzML file! To read a scan using the mzML number,
// use ReadScan(f, ScanIndex(f, scanNum))
func (f *MzML) ReadScan(scanIndex int) ([]Peak, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return nil, ErrInvalidScanIndex
	}
	data, err := f.spectrumData(scanIndex)
	if err != nil {
		return nil, err
	}

	// The peak count is taken from the decoded m/z array, never from
	// defaultArrayLength alone
	var arrays []decodedArray
	n := 0
	for i := range data.BinaryDataArrayList.BinaryDataArray {
		a, err := decodeArray(&data.BinaryDataArrayList.BinaryDataArray[i])
		if err != nil {
			return nil, err
		}
		if a.kind == arrayOther {
			continue
		}
		if a.kind == arrayMz {
			n = len(a.values)
		}
		arrays = append(arrays, a)
	}
	if want := f.spectra[scanIndex].DefaultArrayLength; int64(n) != want {
		return nil, fmt.Errorf("%w: m/z array holds %d values, defaultArrayLength is %d",
			ErrMalformedScan, n, want)
	}

	p := make([]Peak, n)
	for _, a := range arrays {
		if len(a.values) != n {
			return nil, fmt.Errorf("%w: array holds %d values, spectrum has %d peaks",
				ErrMalformedScan, len(a.values), n)
		}
		for i, v := range a.values {
			switch a.kind {
			case arrayMz:
				p[i].Mz = v
			case arrayIntensity:
				p[i].Intens = v
			case arrayCharge:
				p[i].Charge = v
			case arraySN:
				p[i].SN = v
			case arrayResolution:
				p[i].Resolution = v
			case arrayBaseline:
				p[i].Baseline = v
			case arrayNoise:
				p[i].Noise = v
			}
		}
	}
	return p, nil
}

// Centroid returns true is the spectrum contains centroid peaks
func (f *MzML) Centroid(scanIndex int) (bool, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return false, ErrInvalidScanIndex
	}

	for _, cvParam := range f.spectra[scanIndex].CvPar {
		if cvParam.Accession == "MS:1000127" { // centroid spectrum
			return true, nil
		}
	}
	return false, nil
}

// MSLevel returns the MS level of a scan
func (f *MzML) MSLevel(scanIndex int) (int, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return 0, ErrInvalidScanIndex
	}

	for _, cvParam := range f.spectra[scanIndex].CvPar {
		if cvParam.Accession == "MS:1000511" { // ms level
			msLevel, err := strconv.ParseInt(cvParam.Value, 10, 64)
			return int(msLevel), err
		}
	}
	return 1, nil // If nothing else, guess it's MS1
}

// traverseScan fills the arrays f.index2id and f.id2Index
// to make scans accessible by id
func (f *MzML) traverseScan() error {
	f.index2id = make([]string, f.NumSpecs())
	f.id2Index = make(map[string]int, f.NumSpecs())

	for i, spec := range f.spectra {
		if i != spec.Index {
			return ErrInvalidScanIndex
		}
		f.index2id[i] = spec.ID
		f.id2Index[spec.ID] = i
	}
	return nil
}

// ScanIndex converts a scan identifier (the string used in the mzML file)
// into an index that is used to access the scans
func (f *MzML) ScanIndex(scanID string) (int, error) {
	if index, ok := f.id2Index[scanID]; ok {
		return index, nil
	}
	return 0, ErrInvalidScanID
}

// ScanID converts a scan index (used to access the scan data) into a scan id
// (used in the mzML file)
func (f *MzML) ScanID(scanIndex int) (string, error) {
	if scanIndex >= 0 && scanIndex < f.NumSpecs() {
		return f.index2id[scanIndex], nil
	}
	return "", ErrInvalidScanIndex
}

// Close releases the source of the peak data. Closing twice is allowed.
func (f *MzML) Close() error {
	var err error
	if f.closer != nil {
		err = f.closer.Close()
		f.closer = nil
	}
	f.src = nil
	f.inMemory = nil
	return err
}
