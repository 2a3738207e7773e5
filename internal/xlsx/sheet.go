package xlsx

import (
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/sheetimport/internal/sheet"
)

// SheetReader streams the data rows of one worksheet. It implements
// sheet.Reader.
type SheetReader struct {
	name string
	rc   io.ReadCloser
	tok  *Tokenizer
	asm  *Assembler
}

var _ sheet.Reader = (*SheetReader)(nil)

// Name returns the sheet name.
func (r *SheetReader) Name() string { return r.name }

// Header returns the header row. It is available once Next has been called.
func (r *SheetReader) Header() []string { return r.asm.Header() }

// Next returns the next non-blank data row, or io.EOF after the last one.
func (r *SheetReader) Next() (sheet.Row, error) {
	for {
		ev, err := r.tok.Next()
		if errors.Is(err, io.EOF) {
			return sheet.Row{}, io.EOF
		}
		if err != nil {
			return sheet.Row{}, fmt.Errorf("%w: sheet %q: %v", ErrMalformed, r.name, err)
		}
		if row, ok := r.asm.Feed(ev); ok {
			return row, nil
		}
	}
}
