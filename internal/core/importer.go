package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/JonMunkholm/sheetimport/internal/cellref"
	"github.com/JonMunkholm/sheetimport/internal/legacy"
	"github.com/JonMunkholm/sheetimport/internal/schema"
	"github.com/JonMunkholm/sheetimport/internal/sheet"
	"github.com/JonMunkholm/sheetimport/internal/xlsx"
)

// Options tunes an Importer.
type Options struct {
	// StrictHeader fails a sheet whose header titles do not match the
	// schema's field titles (compared case-folded and NFKC-normalized).
	StrictHeader bool
	// MaxRows caps the non-blank data rows per sheet; 0 means no limit.
	MaxRows int
	// Charset decodes strings of legacy .xls files.
	Charset string
}

// Importer reads workbooks and binds their sheets to schemas. Sheet i binds
// to binders[i]; sheets beyond the binder list are not opened.
type Importer struct {
	opts   Options
	logger *slog.Logger
}

// NewImporter creates an Importer. A nil logger means slog.Default().
func NewImporter(opts Options, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{opts: opts, logger: logger}
}

// ImportFile imports the workbook stored at path.
func (im *Importer) ImportFile(ctx context.Context, path string, binders []schema.Binder) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return im.Import(ctx, f, info.Size(), binders)
}

// Import detects the format of the workbook in r and imports it. On a fatal
// error the returned Result still holds every sheet completed before it.
func (im *Importer) Import(ctx context.Context, r io.ReaderAt, size int64, binders []schema.Binder) (*Result, error) {
	wb, err := im.open(r, size)
	if err != nil {
		return NewResult(), &ImportError{Sheet: -1, Err: err}
	}
	defer wb.Close()

	return im.ImportWorkbook(ctx, wb, binders)
}

func (im *Importer) open(r io.ReaderAt, size int64) (sheet.Workbook, error) {
	format, err := DetectFormat(r)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLS:
		wb, err := legacy.Open(io.NewSectionReader(r, 0, size), im.opts.Charset)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedPackage, err)
		}
		return wb, nil
	default:
		wb, err := xlsx.Open(r, size)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedPackage, err)
		}
		return wb, nil
	}
}

// ImportWorkbook imports an already opened workbook.
func (im *Importer) ImportWorkbook(ctx context.Context, wb sheet.Workbook, binders []schema.Binder) (*Result, error) {
	res := NewResult()

	for i, binder := range binders {
		rd, err := wb.NextSheet()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, &ImportError{Sheet: i, Err: im.classify(err)}
		}

		if err := im.importSheet(ctx, i, rd, binder, res); err != nil {
			return res, &ImportError{Sheet: i, Name: rd.Name(), Err: im.classify(err)}
		}
	}

	if named, ok := wb.(interface{ SheetNames() []string }); ok {
		if names := named.SheetNames(); len(names) > len(binders) {
			im.logger.Debug("sheets without a schema were skipped",
				"skipped", names[len(binders):],
			)
		}
	}
	return res, nil
}

// importSheet drains one sheet. Rows are committed to res only when the whole
// sheet succeeds.
func (im *Importer) importSheet(ctx context.Context, index int, rd sheet.Reader, binder schema.Binder, res *Result) error {
	sum := SheetSummary{Index: index, Name: rd.Name(), Schema: binder.Name()}
	logger := im.logger.With("sheet", rd.Name(), "schema", binder.Name())

	var (
		records       []any
		invalid       []schema.InvalidRow
		headerChecked bool
	)
	checkHeader := func() error {
		headerChecked = true
		if !im.opts.StrictHeader {
			return nil
		}
		return matchHeader(rd.Header(), binder.Specs())
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if !headerChecked {
			if err := checkHeader(); err != nil {
				return err
			}
		}

		sum.Rows++
		if im.opts.MaxRows > 0 && sum.Rows > im.opts.MaxRows {
			return fmt.Errorf("%w: more than %d data rows", ErrTooManyRows, im.opts.MaxRows)
		}

		rec, errs, err := binder.Bind(row)
		switch {
		case err != nil:
			sum.Dropped++
			logger.Warn("row dropped", "row", row.Index, "error", err)
		case errs.Len() > 0:
			sum.Invalid++
			invalid = append(invalid, schema.InvalidRow{
				Sheet:  rd.Name(),
				Row:    row.Index,
				Cells:  row.Values(),
				Errors: errs,
			})
		default:
			sum.Valid++
			records = append(records, rec)
		}
	}

	if !headerChecked {
		if err := checkHeader(); err != nil {
			return err
		}
	}

	res.AddSheet(sum, records, invalid)
	logger.Info("sheet imported",
		"rows", sum.Rows,
		"valid", sum.Valid,
		"invalid", sum.Invalid,
		"dropped", sum.Dropped,
	)
	return nil
}

// classify wraps decoder failures in ErrMalformedPackage.
func (im *Importer) classify(err error) error {
	if errors.Is(err, xlsx.ErrMalformed) || errors.Is(err, legacy.ErrUnreadable) {
		if !errors.Is(err, ErrMalformedPackage) {
			return fmt.Errorf("%w: %w", ErrMalformedPackage, err)
		}
	}
	return err
}

// normalizeTitle folds case and compatibility forms. A Caser holds state, so
// one is made per call.
func normalizeTitle(s string) string {
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(s)))
}

// matchHeader checks that every field's title sits in its column.
func matchHeader(header []string, specs []schema.FieldSpec) error {
	for _, spec := range specs {
		got := ""
		if spec.Order < len(header) {
			got = header[spec.Order]
		}
		if normalizeTitle(got) != normalizeTitle(spec.Title) {
			return fmt.Errorf("%w: column %s is %q, want %q",
				ErrHeaderMismatch, cellref.ColumnName(spec.Order), got, spec.Title)
		}
	}
	return nil
}
