// Package sheet defines the row representation shared by every spreadsheet
// decoder and the record binder.
//
// Decoders (the streaming xlsx reader, the legacy xls reader) produce [Row]
// values through the [Workbook] and [Reader] interfaces; the binder consumes
// them without knowing which file format they came from.
package sheet

import (
	"io"
	"strings"
)

// Row is one assembled data row. Cells is keyed by zero-based column index and
// is contiguous from 0 to Width()-1 once the decoder has backfilled gaps.
type Row struct {
	Index int // 1-based row number within the sheet
	Cells map[int]string
}

// NewRow returns an empty row with the given sheet row number.
func NewRow(index int) Row {
	return Row{Index: index, Cells: make(map[int]string)}
}

// Get returns the value at column col and whether the column was present.
func (r Row) Get(col int) (string, bool) {
	v, ok := r.Cells[col]
	return v, ok
}

// Width returns one past the highest populated column index.
func (r Row) Width() int {
	w := 0
	for col := range r.Cells {
		if col+1 > w {
			w = col + 1
		}
	}
	return w
}

// Values returns the row as a dense slice of Width() entries.
func (r Row) Values() []string {
	out := make([]string, r.Width())
	for col, v := range r.Cells {
		out[col] = v
	}
	return out
}

// IsBlank reports whether every cell is empty or whitespace.
func (r Row) IsBlank() bool {
	for _, v := range r.Cells {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Reader yields the data rows of one sheet. The header row is consumed by the
// reader and exposed through Header. Next returns io.EOF after the last row.
type Reader interface {
	Name() string
	Header() []string
	Next() (Row, error)
}

// Workbook iterates over sheets in document order. NextSheet returns io.EOF
// when no sheets remain. A Reader is only valid until the next call to
// NextSheet.
type Workbook interface {
	NextSheet() (Reader, error)
	io.Closer
}
