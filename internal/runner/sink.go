package runner

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// sink is a buffered output file, gzip compressed when its name ends in .gz
type sink struct {
	f      *os.File
	buf    *bufio.Writer
	gz     *gzip.Writer
	w      io.Writer
	closed bool
}

// createSink creates or truncates path
func createSink(path string) (*sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s := &sink{f: f, buf: bufio.NewWriterSize(f, 64*1024)}
	s.w = s.buf
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		s.gz = gzip.NewWriter(s.buf)
		s.w = s.gz
	}
	return s, nil
}

func (s *sink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// Close flushes all layers and closes the file. Closing twice is a no-op.
func (s *sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	if s.gz != nil {
		errs = append(errs, s.gz.Close())
	}
	errs = append(errs, s.buf.Flush(), s.f.Close())
	return errors.Join(errs...)
}
