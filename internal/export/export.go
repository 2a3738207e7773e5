// Package export writes workbooks driven by the same field metadata the
// importer reads: blank templates, record exports and invalid-row reports.
// Every workbook it produces can be imported again with the same layout.
package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sheetimport/internal/cellref"
	"github.com/JonMunkholm/sheetimport/internal/coerce"
	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/datefmt"
	"github.com/JonMunkholm/sheetimport/internal/schema"
)

// ContentType is the MIME type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// lastRow is the bottom row of an .xlsx sheet; validations cover the column
// down to it.
const lastRow = excelize.TotalRows

const author = "sheetimport"

// book wraps an excelize file with the styles shared by every export.
type book struct {
	f      *excelize.File
	sheets int

	header   int // optional column title
	required int // required column title
	text     int // "@" number format, keeps typed values as strings
	invalid  int // cell that failed validation
	errors   int // wrapped error messages
}

func newBook() (*book, error) {
	b := &book{f: excelize.NewFile()}

	styles := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&b.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&b.required, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"C00000"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&b.text, &excelize.Style{NumFmt: 49}},
		{&b.invalid, &excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
		}},
		{&b.errors, &excelize.Style{
			Font:      &excelize.Font{Color: "9C0006"},
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		}},
	}
	for _, s := range styles {
		id, err := b.f.NewStyle(s.style)
		if err != nil {
			b.f.Close()
			return nil, fmt.Errorf("create style: %w", err)
		}
		*s.dst = id
	}
	return b, nil
}

// addSheet creates the next sheet. The first call renames the default sheet.
func (b *book) addSheet(name string) (string, error) {
	name = sheetName(name, b.sheets)
	defer func() { b.sheets++ }()

	if b.sheets == 0 {
		return name, b.f.SetSheetName(b.f.GetSheetName(0), name)
	}
	_, err := b.f.NewSheet(name)
	return name, err
}

// writeHeader writes the column titles of specs into row 1 and freezes it.
func (b *book) writeHeader(sheet string, specs []schema.FieldSpec) error {
	for _, spec := range specs {
		cell := cellName(spec.Order, 1)
		if err := b.f.SetCellStr(sheet, cell, spec.Title); err != nil {
			return err
		}
		style := b.header
		if spec.Required {
			style = b.required
		}
		if err := b.f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}

		col := cellref.ColumnName(spec.Order)
		if err := b.f.SetColWidth(sheet, col, col, columnWidth(spec)); err != nil {
			return err
		}
		if spec.Type == coerce.Boolean || spec.Type == coerce.Text {
			if err := b.f.SetColStyle(sheet, col, b.text); err != nil {
				return err
			}
			// SetColStyle also restyles row 1.
			if err := b.f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return err
			}
		}
	}

	return b.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (b *book) write(w io.Writer) error {
	defer b.f.Close()
	if b.sheets > 1 {
		b.f.SetActiveSheet(0)
	}
	return b.f.Write(w)
}

// cellValue converts a bound field value into something that renders back to
// a string the field's coercion accepts.
func cellValue(spec schema.FieldSpec, v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		return datefmt.Format(x, spec.EffectiveFormat())
	case pgtype.Timestamp:
		if !x.Valid {
			return nil
		}
		return datefmt.Format(x.Time, spec.EffectiveFormat())
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		s, err := x.Value()
		if err != nil {
			return nil
		}
		return s
	case bool:
		return strconv.FormatBool(x)
	case string:
		if x == "" {
			return nil
		}
		return x
	}
	return v
}

func columnWidth(spec schema.FieldSpec) float64 {
	w := float64(len([]rune(spec.Title))) + 4
	if spec.Type == coerce.Date || spec.Type == coerce.Timestamp {
		w = max(w, float64(len(spec.EffectiveFormat()))+2)
	}
	return min(max(w, 10), 60)
}

func cellName(col, row int) string {
	return cellref.ColumnName(col) + strconv.Itoa(row)
}

// sheetName makes a valid sheet title: at most 31 characters and
// none of : \ / ? * [ ].
func sheetName(name string, index int) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			r = '_'
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return "Sheet" + strconv.Itoa(index+1)
	}
	if len(out) > 31 {
		out = out[:31]
	}
	return string(out)
}

// sheetTitle returns the title of the sheet bound to def.Sheets[i].
func sheetTitle(def core.LayoutDefinition, i int) string {
	return def.Sheets[i].Binder.Name()
}
