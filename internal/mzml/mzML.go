package mzml

import (
	"errors"
	"io"
)

// MzML gives access to the spectra of an mzML file. Only the spectrum
// headers are kept in memory, peak data is decoded from src on request.
type MzML struct {
	src      io.ReaderAt
	spectra  []spectrumHeader
	index2id []string
	id2Index map[string]int
	closer   io.Closer

	// set for documents whose offsets cannot be used, see Read
	inMemory []*spectrumData
}

// Peak contains the actual ms peak info.
// Only Mz and Intens are present in every spectrum, the other fields
// are filled when the spectrum carries the corresponding data array
// (typically centroid spectra converted from vendor label data).
type Peak struct {
	Mz         float64
	Intens     float64
	Resolution float64
	Baseline   float64
	Noise      float64
	Charge     float64
	SN         float64 // signal to noise
}

// spectrumHeader is a spectrum without its binary data, plus the byte
// range of the spectrum element in the source
type spectrumHeader struct {
	Index              int       `xml:"index,attr"`
	ID                 string    `xml:"id,attr"`
	DefaultArrayLength int64     `xml:"defaultArrayLength,attr"`
	CvPar              []CVParam `xml:"cvParam,omitempty"`
	ScanList           scanList  `xml:"scanList"`

	start int64
	end   int64
}

// spectrumData is the binary part of a spectrum element
type spectrumData struct {
	BinaryDataArrayList binaryDataArrayList `xml:"binaryDataArrayList"`
}

type binaryDataArrayList struct {
	Count           int               `xml:"count,attr,omitempty"`
	BinaryDataArray []binaryDataArray `xml:"binaryDataArray"`
}

type binaryDataArray struct {
	EncodedLength int       `xml:"encodedLength,attr,omitempty"`
	ArrayLength   int       `xml:"arrayLength,attr,omitempty"`
	CvPar         []CVParam `xml:"cvParam,omitempty"`
	Binary        string    `xml:"binary"`
}

type scanList struct {
	Count int       `xml:"count,attr,omitempty"`
	CvPar []CVParam `xml:"cvParam,omitempty"`
	Scan  []scan    `xml:"scan"`
}

type scan struct {
	InstrConfRef string    `xml:"instrumentConfigurationRef,attr,omitempty"`
	CvPar        []CVParam `xml:"cvParam,omitempty"`
}

// CVParam contains values and attributes of a mzML Controlled Vocabulary term
// (http://www.peptideatlas.org/tmp/mzML1.1.0.html)
type CVParam struct {
	Accession     string `xml:"accession,attr,omitempty"`
	Name          string `xml:"name,attr,omitempty"`
	Value         string `xml:"value,attr,omitempty"`
	UnitCvRef     string `xml:"unitCvRef,attr,omitempty"`
	UnitAccession string `xml:"unitAccession,attr,omitempty"`
	UnitName      string `xml:"unitName,attr,omitempty"`
}

const mzMLNamespace = "http://psi.hupo.org/ms/mzml"

var (
	// ErrNotMzML means the document has no mzML element
	ErrNotMzML = errors.New("MzML: not an mzML document")
	// ErrClosed means the peak data of a closed file is read
	ErrClosed = errors.New("MzML: file is closed")
	// ErrInvalidScanID means an invalid scan id is supplied
	ErrInvalidScanID = errors.New("MzML: invalid scan id")
	// ErrInvalidScanIndex means an invalid scan index is supplied
	ErrInvalidScanIndex = errors.New("MzML: invalid scan index")
	// ErrUnknownUnit means the file contains a unit that the software cannot handle
	ErrUnknownUnit = errors.New("MzML: can't handle unit")
	// ErrUnsupportedCompression means a binary array uses a compression
	// scheme that we cannot decode (MS-Numpress)
	ErrUnsupportedCompression = errors.New("MzML: unsupported binary compression")
	// ErrMalformedScan means the binary data of a spectrum could not be decoded
	// or does not match the array length of the spectrum
	ErrMalformedScan = errors.New("MzML: malformed spectrum data")
)
