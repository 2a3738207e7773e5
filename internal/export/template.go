package export

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sheetimport/internal/cellref"
	"github.com/JonMunkholm/sheetimport/internal/coerce"
	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/schema"
)

// Template writes a blank workbook for def: one sheet per schema with the
// header row, field comments, enum drop-downs and length checks.
func Template(w io.Writer, def core.LayoutDefinition) error {
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
		if err := b.annotate(sheet, specs); err != nil {
			b.f.Close()
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}

	return b.write(w)
}

// annotate adds the header comments and data validations of specs.
func (b *book) annotate(sheet string, specs []schema.FieldSpec) error {
	for _, spec := range specs {
		if text := commentText(spec); text != "" {
			err := b.f.AddComment(sheet, excelize.Comment{
				Cell:   cellName(spec.Order, 1),
				Author: author,
				Text:   text,
			})
			if err != nil {
				return fmt.Errorf("comment %s: %w", spec.Title, err)
			}
		}

		dv, err := validation(spec)
		if err != nil {
			// Lists longer than Excel's formula limit stay unchecked.
			slog.Debug("data validation skipped", "sheet", sheet, "field", spec.Title, "error", err)
			continue
		}
		if dv == nil {
			continue
		}
		if err := b.f.AddDataValidation(sheet, dv); err != nil {
			return fmt.Errorf("validation %s: %w", spec.Title, err)
		}
	}
	return nil
}

func validation(spec schema.FieldSpec) (*excelize.DataValidation, error) {
	col := cellref.ColumnName(spec.Order)
	dv := excelize.NewDataValidation(!spec.Required)
	dv.Sqref = col + "2:" + col + strconv.Itoa(lastRow)

	switch {
	case len(spec.Enums) > 0:
		if err := dv.SetDropList(spec.Enums); err != nil {
			return nil, err
		}
		dv.SetError(excelize.DataValidationErrorStyleStop, spec.Title, "Choose a value from the list")
	case spec.MaxLength > 0:
		if err := dv.SetRange(0, spec.MaxLength, excelize.DataValidationTypeTextLength, excelize.DataValidationOperatorBetween); err != nil {
			return nil, err
		}
		dv.SetError(excelize.DataValidationErrorStyleStop, spec.Title,
			fmt.Sprintf("At most %d characters", spec.MaxLength))
	default:
		return nil, nil
	}
	return dv, nil
}

func commentText(spec schema.FieldSpec) string {
	text := spec.Comment
	add := func(s string) {
		if text != "" {
			text += "\n"
		}
		text += s
	}

	if spec.Required {
		add("Required")
	}
	switch spec.Type {
	case coerce.Date, coerce.Timestamp:
		add("Format: " + spec.EffectiveFormat())
	}
	return text
}
