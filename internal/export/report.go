package export

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/sheetimport/internal/cellref"
	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/schema"
)

// ErrorsTitle heads the column holding the validation messages of a row.
const ErrorsTitle = "Errors"

// InvalidRows writes the rows of res that failed validation, as they were
// read, one sheet per schema of def. Failed cells are highlighted and an
// extra column after the data lists the messages. The workbook can be
// corrected and imported again; the extra column is ignored.
func InvalidRows(w io.Writer, def core.LayoutDefinition, res *core.Result) error {
	b, err := newBook()
	if err != nil {
		return err
	}

	for i, sd := range def.Sheets {
		sheet, err := b.addSheet(sheetTitle(def, i))
		if err != nil {
			b.f.Close()
			return fmt.Errorf("add sheet: %w", err)
		}
		if err := b.writeInvalid(sheet, sd.Binder.Specs(), res.Invalid(sd.Binder.Name())); err != nil {
			b.f.Close()
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}

	return b.write(w)
}

func (b *book) writeInvalid(sheet string, specs []schema.FieldSpec, rows []schema.InvalidRow) error {
	if err := b.writeHeader(sheet, specs); err != nil {
		return err
	}

	width := 0
	order := make(map[string]int, len(specs))
	for _, spec := range specs {
		width = max(width, spec.Order+1)
		order[spec.Title] = spec.Order
	}
	for _, r := range rows {
		width = max(width, len(r.Cells))
	}

	errCol := width
	head := cellName(errCol, 1)
	if err := b.f.SetCellStr(sheet, head, ErrorsTitle); err != nil {
		return err
	}
	if err := b.f.SetCellStyle(sheet, head, head, b.header); err != nil {
		return err
	}
	col := cellref.ColumnName(errCol)
	if err := b.f.SetColWidth(sheet, col, col, 50); err != nil {
		return err
	}

	for n, r := range rows {
		row := n + 2
		for c, v := range r.Cells {
			if v == "" {
				continue
			}
			if err := b.f.SetCellStr(sheet, cellName(c, row), v); err != nil {
				return err
			}
		}
		for _, title := range r.Errors.Titles() {
			c, ok := order[title]
			if !ok {
				continue
			}
			cell := cellName(c, row)
			if err := b.f.SetCellStyle(sheet, cell, cell, b.invalid); err != nil {
				return err
			}
		}

		cell := cellName(errCol, row)
		if err := b.f.SetCellStr(sheet, cell, r.Format()); err != nil {
			return err
		}
		if err := b.f.SetCellStyle(sheet, cell, cell, b.errors); err != nil {
			return err
		}
	}
	return nil
}
