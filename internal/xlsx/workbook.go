// Package xlsx streams rows out of OOXML (.xlsx) workbooks.
//
// A workbook is opened once: the sheet list, shared strings and styles are
// loaded up front, then each worksheet part is decoded token by token and fed
// through an [Assembler] that rebuilds gap-filled rows. Only one sheet is open
// at a time, and rows are handed out as soon as they are complete.
package xlsx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/JonMunkholm/sheetimport/internal/sheet"
)

// ErrMalformed is returned for packages that are not valid xlsx workbooks.
var ErrMalformed = errors.New("malformed xlsx package")

const defaultWorkbookPath = "xl/workbook.xml"

type xlsxRelationships struct {
	Rels []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type xlsxWorkbook struct {
	WorkbookPr struct {
		Date1904 bool `xml:"date1904,attr"`
	} `xml:"workbookPr"`
	Sheets []struct {
		Name  string     `xml:"name,attr"`
		Attrs []xml.Attr `xml:",any,attr"`
	} `xml:"sheets>sheet"`
}

type sheetEntry struct {
	name string
	part string
}

// Workbook is an open xlsx package. It implements sheet.Workbook.
type Workbook struct {
	files    map[string]*zip.File
	sheets   []sheetEntry
	sst      *SharedStrings
	styles   *Styles
	date1904 bool

	next    int
	current *SheetReader
	closer  io.Closer
}

var _ sheet.Workbook = (*Workbook)(nil)

// OpenFile opens the workbook at name.
func OpenFile(name string) (*Workbook, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	wb, err := Open(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	wb.closer = f
	return wb, nil
}

// Open reads the package structure of the workbook in r: sheet order and
// names, shared strings, styles and the date system.
func Open(r io.ReaderAt, size int64) (*Workbook, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	wb := &Workbook{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		wb.files[strings.TrimPrefix(f.Name, "/")] = f
	}

	wbPath := defaultWorkbookPath
	if rels, err := wb.readRels("_rels/.rels"); err == nil {
		for _, rel := range rels.Rels {
			if strings.HasSuffix(rel.Type, "/officeDocument") {
				wbPath = resolveTarget("", rel.Target)
			}
		}
	}

	var doc xlsxWorkbook
	if err := wb.decodePart(wbPath, &doc); err != nil {
		return nil, err
	}
	wb.date1904 = doc.WorkbookPr.Date1904

	rels, err := wb.readRels(path.Join(path.Dir(wbPath), "_rels", path.Base(wbPath)+".rels"))
	if err != nil {
		return nil, err
	}
	targets := make(map[string]string, len(rels.Rels))
	sstPath, stylesPath := "xl/sharedStrings.xml", "xl/styles.xml"
	for _, rel := range rels.Rels {
		target := resolveTarget(path.Dir(wbPath), rel.Target)
		targets[rel.ID] = target
		switch {
		case strings.HasSuffix(rel.Type, "/sharedStrings"):
			sstPath = target
		case strings.HasSuffix(rel.Type, "/styles"):
			stylesPath = target
		}
	}

	for _, s := range doc.Sheets {
		var rid string
		for _, a := range s.Attrs {
			if a.Name.Local == "id" {
				rid = a.Value
			}
		}
		part, ok := targets[rid]
		if !ok {
			return nil, fmt.Errorf("%w: sheet %q has no part", ErrMalformed, s.Name)
		}
		wb.sheets = append(wb.sheets, sheetEntry{name: s.Name, part: part})
	}

	if wb.sst, err = loadOptional(wb, sstPath, LoadSharedStrings); err != nil {
		return nil, err
	}
	if wb.styles, err = loadOptional(wb, stylesPath, LoadStyles); err != nil {
		return nil, err
	}
	return wb, nil
}

// SheetNames returns the sheet names in document order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.sheets))
	for i, s := range w.sheets {
		names[i] = s.name
	}
	return names
}

// Date1904 reports whether the workbook uses the 1904 date system.
func (w *Workbook) Date1904() bool { return w.date1904 }

// NextSheet closes the current sheet and opens the next one in document
// order. It returns io.EOF when no sheets remain.
func (w *Workbook) NextSheet() (sheet.Reader, error) {
	if err := w.closeCurrent(); err != nil {
		return nil, err
	}
	if w.next >= len(w.sheets) {
		return nil, io.EOF
	}
	entry := w.sheets[w.next]
	w.next++

	f, ok := w.files[entry.part]
	if !ok {
		return nil, fmt.Errorf("%w: missing part %s", ErrMalformed, entry.part)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrMalformed, entry.part, err)
	}

	w.current = &SheetReader{
		name: entry.name,
		rc:   rc,
		tok:  NewTokenizer(rc),
		asm:  NewAssembler(w.sst, w.styles, w.date1904),
	}
	return w.current, nil
}

// Close releases the open sheet and, for OpenFile, the file.
func (w *Workbook) Close() error {
	err := w.closeCurrent()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
		w.closer = nil
	}
	return err
}

func (w *Workbook) closeCurrent() error {
	if w.current == nil {
		return nil
	}
	err := w.current.rc.Close()
	w.current = nil
	return err
}

func (w *Workbook) readRels(name string) (*xlsxRelationships, error) {
	var rels xlsxRelationships
	if err := w.decodePart(name, &rels); err != nil {
		return nil, err
	}
	return &rels, nil
}

func (w *Workbook) decodePart(name string, v any) error {
	f, ok := w.files[name]
	if !ok {
		return fmt.Errorf("%w: missing part %s", ErrMalformed, name)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrMalformed, name, err)
	}
	defer rc.Close()

	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMalformed, name, err)
	}
	return nil
}

// loadOptional decodes a part with load, or returns nil if the part is absent.
func loadOptional[T any](w *Workbook, name string, load func(io.Reader) (*T, error)) (*T, error) {
	f, ok := w.files[name]
	if !ok {
		return nil, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrMalformed, name, err)
	}
	defer rc.Close()

	v, err := load(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}

// resolveTarget turns a relationship target into a package part name.
func resolveTarget(base, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(base, target)
}
