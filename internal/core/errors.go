package core

import (
	"errors"
	"fmt"
)

// Sentinel errors of the import pipeline. Their messages contain the
// patterns MapError matches on.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMalformedPackage  = errors.New("malformed spreadsheet")
	ErrEmptyFile         = errors.New("empty file")
	ErrHeaderMismatch    = errors.New("header mismatch")
	ErrTooManyRows       = errors.New("too many rows")
	ErrLayoutNotFound    = errors.New("layout not found")
	ErrImportNotFound    = errors.New("import not found")
	ErrPersistDisabled   = errors.New("persistence not configured")
)

// ImportError is a fatal workbook or sheet failure. Sheet is -1 when the
// workbook itself could not be read.
type ImportError struct {
	Sheet int
	Name  string
	Err   error
}

func (e *ImportError) Error() string {
	if e.Sheet < 0 {
		return fmt.Sprintf("workbook: %v", e.Err)
	}
	if e.Name != "" {
		return fmt.Sprintf("sheet %d (%s): %v", e.Sheet+1, e.Name, e.Err)
	}
	return fmt.Sprintf("sheet %d: %v", e.Sheet+1, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}
