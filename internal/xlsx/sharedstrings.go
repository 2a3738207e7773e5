package xlsx

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SharedStrings is the workbook's shared string table. It is loaded once per
// workbook and only read afterwards.
type SharedStrings struct {
	items []string
}

// NewSharedStrings returns a table holding items, mainly for tests.
func NewSharedStrings(items ...string) *SharedStrings {
	return &SharedStrings{items: items}
}

// LoadSharedStrings decodes an xl/sharedStrings.xml part. Rich-text runs of
// one entry are concatenated; phonetic runs are skipped.
func LoadSharedStrings(r io.Reader) (*SharedStrings, error) {
	dec := xml.NewDecoder(r)
	sst := &SharedStrings{}

	var (
		buf      strings.Builder
		inItem   bool
		inText   bool
		phonetic int
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return sst, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode shared strings: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "si":
				inItem = true
				buf.Reset()
			case "rPh":
				phonetic++
			case "t":
				inText = inItem && phonetic == 0
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "si":
				sst.items = append(sst.items, buf.String())
				inItem = false
			case "rPh":
				phonetic--
			case "t":
				inText = false
			}
		}
	}
}

// Len returns the number of entries.
func (s *SharedStrings) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Resolve returns the entry at the index written in v. Values that are not an
// in-range index are returned unchanged, since some writers store literals
// where an index is expected.
func (s *SharedStrings) Resolve(v string) string {
	idx, err := strconv.Atoi(v)
	if err != nil || idx < 0 || idx >= s.Len() {
		return v
	}
	return s.items[idx]
}
