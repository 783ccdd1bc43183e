package mzml

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Open indexes the mzML file at path. The file stays open until Close.
// Gzip compressed files (.mzML.gz) are recognized by their header and
// decompressed into a temporary file that is removed by Close.
func Open(path string) (MzML, error) {
	f, err := os.Open(path)
	if err != nil {
		return MzML{}, err
	}

	head, err := bufio.NewReader(f).Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		f.Close()
		return MzML{}, fmt.Errorf("open %s: %w", path, err)
	}

	var src *os.File
	var closer io.Closer
	if bytes.Equal(head, gzipMagic) {
		tmp, err := gunzipToTemp(f)
		f.Close()
		if err != nil {
			return MzML{}, fmt.Errorf("open %s: %w", path, err)
		}
		src, closer = tmp.File, tmp
	} else {
		src, closer = f, f
	}

	mzML, err := Read(src)
	if err != nil {
		closer.Close()
		return MzML{}, fmt.Errorf("read %s: %w", path, err)
	}
	mzML.closer = closer
	return mzML, nil
}

// tempFile is removed when closed
type tempFile struct {
	*os.File
}

func (t tempFile) Close() error {
	return errors.Join(t.File.Close(), os.Remove(t.Name()))
}

func gunzipToTemp(f *os.File) (tempFile, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return tempFile{}, err
	}
	z, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return tempFile{}, err
	}
	defer z.Close()

	tmp, err := os.CreateTemp("", "peakexport-*.mzML")
	if err != nil {
		return tempFile{}, err
	}
	t := tempFile{tmp}
	if _, err := io.Copy(tmp, z); err != nil {
		t.Close()
		return tempFile{}, err
	}
	return t, nil
}
