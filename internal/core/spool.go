package core

// spool.go copies uploads to temporary files.
//
// The xlsx decoder needs random access (the zip directory sits at the end of
// the file), so an upload stream is written to disk once and the import reads
// the file. A CountingReader enforces the size limit while copying.

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrFileTooLarge is returned when an upload exceeds the configured limit.
var ErrFileTooLarge = errors.New("file too large")

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // If known (0 if unknown)
}

// NewCountingReader creates a counting reader with optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{
		reader: r,
		Total:  total,
	}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	return int(r.BytesRead * 100 / r.Total)
}

// SpooledFile is an upload written to a temporary file. Close removes it.
type SpooledFile struct {
	*os.File
	size int64
}

// Size returns the number of bytes spooled.
func (f *SpooledFile) Size() int64 { return f.size }

// Close closes and removes the temporary file.
func (f *SpooledFile) Close() error {
	err := f.File.Close()
	if rerr := os.Remove(f.Name()); err == nil && !errors.Is(rerr, os.ErrNotExist) {
		err = rerr
	}
	return err
}

// Spool copies r into a new temporary file in dir (os.TempDir when empty).
// It fails with ErrFileTooLarge once more than limit bytes have been read;
// limit <= 0 disables the check.
func Spool(r io.Reader, dir string, limit int64) (*SpooledFile, error) {
	f, err := os.CreateTemp(dir, "sheetimport-*")
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}
	sf := &SpooledFile{File: f}

	src := NewCountingReader(r, 0)
	var in io.Reader = src
	if limit > 0 {
		in = io.LimitReader(src, limit+1)
	}

	if _, err := io.Copy(f, in); err != nil {
		sf.Close()
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	if limit > 0 && src.BytesRead > limit {
		sf.Close()
		return nil, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, limit)
	}

	sf.size = src.BytesRead
	return sf, nil
}
