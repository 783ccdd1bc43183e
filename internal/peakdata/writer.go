package peakdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// Summary describes what a StreamWriter wrote
type Summary struct {
	Scans    int // scans with at least one row
	Rows     int
	LastScan int // scan number of the last scan written, 0 if none
}

// StreamWriter writes scan records as tab separated rows to a sink.
// The sink is closed when WriteAll returns.
type StreamWriter struct {
	sink   io.WriteCloser
	events Events
}

// NewStreamWriter returns a writer on sink. events may be nil.
func NewStreamWriter(sink io.WriteCloser, events Events) *StreamWriter {
	return &StreamWriter{sink: sink, events: orNop(events)}
}

// WriteAll writes the header followed by the rows of every record of seq.
// totalScans is only used for progress reporting and may be 0. The rows
// of a scan are flushed as one block, so rows written before a failure
// stay in the sink.
func (w *StreamWriter) WriteAll(seq Sequence, totalScans int) (sum Summary, err error) {
	defer func() {
		if cerr := w.sink.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
			w.events.Error(fmt.Sprintf("closing output failed after scan %d", sum.LastScan), err)
		}
	}()

	cw := csv.NewWriter(w.sink)
	cw.Comma = '\t'
	if err := cw.Write(Header); err != nil {
		w.events.Error("writing header failed", err)
		return sum, fmt.Errorf("write header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		w.events.Error("writing header failed", err)
		return sum, fmt.Errorf("write header: %w", err)
	}

	for seq.Next() {
		rec := seq.Record()
		if err := w.writeRecord(cw, rec); err != nil {
			w.events.Error(fmt.Sprintf("writing scan %d failed", rec.ScanNumber), err)
			return sum, &ScanError{Scan: rec.ScanNumber, Err: err}
		}
		sum.Scans++
		sum.Rows += len(rec.Peaks)
		sum.LastScan = rec.ScanNumber
		if totalScans > 0 && rec.ScanNumber%100 == 0 {
			w.events.Progress(fmt.Sprintf("Processing scan %d", rec.ScanNumber),
				float64(rec.ScanNumber)/float64(totalScans)*100)
		}
	}
	if err := seq.Err(); err != nil {
		scan := sum.LastScan
		var se *ScanError
		if errors.As(err, &se) {
			scan = se.Scan
		}
		w.events.Error(fmt.Sprintf("reading scan %d failed", scan), err)
		return sum, err
	}
	return sum, nil
}

func (w *StreamWriter) writeRecord(cw *csv.Writer, rec *ScanRecord) error {
	for _, row := range Rows(rec) {
		if err := cw.Write(row.Fields()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
