package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Format is a spreadsheet container format.
type Format int

const (
	FormatUnknown Format = iota
	FormatXLSX
	FormatXLS
)

func (f Format) String() string {
	switch f {
	case FormatXLSX:
		return "xlsx"
	case FormatXLS:
		return "xls"
	default:
		return "unknown"
	}
}

var (
	zipMagic  = []byte{'P', 'K', 0x03, 0x04}
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DetectFormat sniffs the container format from the first bytes of r. File
// names are not trusted.
func DetectFormat(r io.ReaderAt) (Format, error) {
	head := make([]byte, len(ole2Magic))
	n, err := r.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return FormatUnknown, fmt.Errorf("read file header: %w", err)
	}
	head = head[:n]

	switch {
	case n == 0:
		return FormatUnknown, ErrEmptyFile
	case bytes.HasPrefix(head, zipMagic):
		return FormatXLSX, nil
	case bytes.Equal(head, ole2Magic):
		return FormatXLS, nil
	default:
		return FormatUnknown, ErrUnsupportedFormat
	}
}
