package xlsx

import (
	"strconv"
	"strings"

	"github.com/JonMunkholm/sheetimport/internal/cellref"
	"github.com/JonMunkholm/sheetimport/internal/sheet"
)

type assemblerState int

const (
	stateBeforeRow assemblerState = iota
	stateInRow
	stateInCell
)

// sheetContext is the per-sheet parse state. A new one is created for every
// sheet, so nothing leaks from one sheet into the next.
type sheetContext struct {
	rows     int    // physical rows seen, header included
	lastRow  int    // index of the previous row
	widthRef string // last cell reference of the header row
	header   []string
}

// Assembler is the row state machine. It is fed Events one at a time and
// returns each completed, gap-filled data row. The first row of the sheet is
// the header: it sets the row width and is never returned. Blank rows are
// dropped.
type Assembler struct {
	interp *interpreter
	ctx    sheetContext
	state  assemblerState

	row      sheet.Row
	ref      string
	prevRef  string
	col      int // next column index
	nonEmpty bool

	kind    cellKind
	format  string
	text    strings.Builder
	inValue bool
}

// NewAssembler returns an Assembler for one sheet. sst and styles may be nil
// for workbooks without those parts.
func NewAssembler(sst *SharedStrings, styles *Styles, date1904 bool) *Assembler {
	return &Assembler{
		interp: &interpreter{sst: sst, styles: styles, date1904: date1904},
	}
}

// Header returns the header row values. It is empty until the first row has
// been fed.
func (a *Assembler) Header() []string {
	return a.ctx.header
}

// Feed advances the state machine by one event. ok is true when ev completed
// a data row worth binding.
func (a *Assembler) Feed(ev Event) (row sheet.Row, ok bool) {
	switch ev.Kind {
	case EventRowStart:
		a.startRow(ev.Row)

	case EventCellStart:
		if a.state == stateBeforeRow {
			a.startRow(0)
		}
		a.startCell(ev)

	case EventValueStart:
		if ev.Tag == "v" {
			a.text.Reset()
		}
		a.inValue = true

	case EventText:
		if a.inValue {
			a.text.WriteString(ev.Text)
		}

	case EventValueEnd:
		if a.state != stateInCell {
			break
		}
		a.inValue = false
		kind := a.kind
		if ev.Tag == "t" {
			kind = kindInline
		}
		v := a.interp.render(kind, a.format, a.text.String())
		a.row.Cells[a.col-1] = v
		if v != "" {
			a.nonEmpty = true
		}

	case EventRowEnd:
		return a.endRow()
	}
	return sheet.Row{}, false
}

func (a *Assembler) startRow(index int) {
	if index <= 0 {
		index = a.ctx.lastRow + 1
	}
	a.ctx.rows++
	a.ctx.lastRow = index
	a.row = sheet.NewRow(index)
	a.ref, a.prevRef = "", ""
	a.col = 0
	a.nonEmpty = false
	a.state = stateInRow
}

func (a *Assembler) startCell(ev Event) {
	a.prevRef = a.ref
	a.ref = ev.Ref
	if a.ref == "" || cellref.ColumnIndex(a.ref) < 0 {
		a.ref = cellref.ColumnName(a.col) + strconv.Itoa(a.row.Index)
	}

	col := cellref.ColumnIndex(a.ref)
	gap := cellref.CountNullCells(a.ref, a.prevRef)
	for c := col - gap; c < col; c++ {
		if _, ok := a.row.Cells[c]; !ok && c >= 0 {
			a.row.Cells[c] = ""
		}
	}
	if _, ok := a.row.Cells[col]; !ok {
		a.row.Cells[col] = ""
	}
	a.col = col + 1

	a.kind, a.format = cellType(ev.Type, ev.Style, a.interp.styles)
	a.text.Reset()
	a.inValue = false
	a.state = stateInCell
}

func (a *Assembler) endRow() (sheet.Row, bool) {
	if a.state == stateBeforeRow {
		a.startRow(0)
	}
	row := a.row
	header := a.ctx.rows == 1

	if header {
		a.ctx.widthRef = a.ref
		a.ctx.header = row.Values()
	} else if a.ctx.widthRef != "" {
		last := cellref.ColumnIndex(a.ref)
		n := cellref.CountNullCells(a.ctx.widthRef, a.ref)
		for i := 1; i <= n+1; i++ {
			row.Cells[last+i] = ""
		}
	}
	emit := a.nonEmpty && !header

	a.row = sheet.Row{}
	a.ref, a.prevRef = "", ""
	a.col = 0
	a.nonEmpty = false
	a.state = stateBeforeRow
	return row, emit
}
