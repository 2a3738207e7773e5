// Package legacy reads pre-2007 binary workbooks (.xls) into the same
// sheet.Row values the xlsx decoder produces, so both formats share one
// binder.
package legacy

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"

	"github.com/JonMunkholm/sheetimport/internal/sheet"
)

// DefaultCharset is used to decode BIFF5 strings when none is configured.
const DefaultCharset = "utf-8"

// ErrUnreadable is returned when the file is not a readable BIFF workbook.
var ErrUnreadable = errors.New("unreadable xls workbook")

// Workbook is an open .xls file. The whole file is decoded by the underlying
// library; rows are still handed out one at a time.
type Workbook struct {
	wb   *xls.WorkBook
	next int
}

var _ sheet.Workbook = (*Workbook)(nil)

// Open decodes the workbook in r. An empty charset means DefaultCharset.
func Open(r io.ReadSeeker, charset string) (wb *Workbook, err error) {
	if charset == "" {
		charset = DefaultCharset
	}

	// The decoder panics on some truncated files.
	defer func() {
		if p := recover(); p != nil {
			wb, err = nil, fmt.Errorf("%w: %v", ErrUnreadable, p)
		}
	}()

	w, err := xls.OpenReader(r, charset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return &Workbook{wb: w}, nil
}

// SheetNames returns the sheet names in document order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, 0, w.wb.NumSheets())
	for i := 0; i < w.wb.NumSheets(); i++ {
		if ws := w.wb.GetSheet(i); ws != nil {
			names = append(names, ws.Name)
		}
	}
	return names
}

// NextSheet returns the next sheet, or io.EOF when none remain.
func (w *Workbook) NextSheet() (sheet.Reader, error) {
	if w.next >= w.wb.NumSheets() {
		return nil, io.EOF
	}
	ws := w.wb.GetSheet(w.next)
	w.next++
	if ws == nil {
		return nil, fmt.Errorf("%w: sheet %d missing", ErrUnreadable, w.next-1)
	}
	return newReader(ws.Name, worksheet{ws}), nil
}

// Close is a no-op; the file is fully decoded by Open.
func (w *Workbook) Close() error { return nil }

// source is the slice of the worksheet API the reader needs.
type source interface {
	maxRow() int
	// cells returns row i, or false when the row does not exist.
	cells(i int) ([]string, bool)
}

type worksheet struct{ ws *xls.WorkSheet }

func (s worksheet) maxRow() int { return int(s.ws.MaxRow) }

func (s worksheet) cells(i int) ([]string, bool) {
	row := s.ws.Row(i)
	if row == nil {
		return nil, false
	}
	out := make([]string, row.LastCol())
	for j := range out {
		out[j] = row.Col(j)
	}
	return out, true
}

// reader applies the xlsx conventions to a decoded sheet: the first row is
// the header and sets the width, blank rows are dropped and short rows are
// padded to the header width.
type reader struct {
	name   string
	src    source
	next   int
	header []string
	seen   bool
}

func newReader(name string, src source) *reader {
	return &reader{name: name, src: src}
}

func (r *reader) Name() string     { return r.name }
func (r *reader) Header() []string { return r.header }

func (r *reader) Next() (sheet.Row, error) {
	for r.next <= r.src.maxRow() {
		i := r.next
		r.next++

		cells, ok := r.src.cells(i)
		if !ok {
			continue
		}
		for j := range cells {
			cells[j] = strings.TrimSpace(cells[j])
		}

		if !r.seen {
			r.seen = true
			r.header = cells
			continue
		}

		row := sheet.NewRow(i + 1)
		for j, v := range cells {
			row.Cells[j] = v
		}
		for j := len(cells); j < len(r.header); j++ {
			row.Cells[j] = ""
		}
		if row.IsBlank() {
			continue
		}
		return row, nil
	}
	return sheet.Row{}, io.EOF
}
