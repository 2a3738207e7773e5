package export

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/sheetimport/internal/core"
)

// Records writes the valid records of res, one sheet per schema of def.
func Records(w io.Writer, def core.LayoutDefinition, res *core.Result) error {
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

		specs := sd.Binder.Specs()
		if err := b.writeHeader(sheet, specs); err != nil {
			b.f.Close()
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}

		for n, rec := range res.Records(sd.Binder.Name()) {
			values, err := sd.Binder.Values(rec)
			if err != nil {
				b.f.Close()
				return fmt.Errorf("sheet %s row %d: %w", sheet, n+2, err)
			}
			for j, spec := range specs {
				v := cellValue(spec, values[j])
				if v == nil {
					continue
				}
				if err := b.f.SetCellValue(sheet, cellName(spec.Order, n+2), v); err != nil {
					b.f.Close()
					return fmt.Errorf("sheet %s row %d: %w", sheet, n+2, err)
				}
			}
		}
	}

	return b.write(w)
}
