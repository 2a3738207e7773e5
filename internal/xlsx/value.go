package xlsx

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sheetimport/internal/datefmt"
)

// cellKind is the interpretation applied to a cell's raw payload.
type cellKind int

const (
	kindNumber cellKind = iota
	kindBool
	kindError
	kindFormula
	kindInline
	kindShared
	kindDate
	kindISODate
	kindUnresolved
)

// cellType derives the kind of a cell, and the format code used to render
// it, from its t and s attributes. Styles only affect numeric cells.
func cellType(t, s string, styles *Styles) (cellKind, string) {
	switch t {
	case "b":
		return kindBool, ""
	case "e":
		return kindError, ""
	case "str":
		return kindFormula, ""
	case "inlineStr":
		return kindInline, ""
	case "s":
		return kindShared, ""
	case "d":
		return kindISODate, datefmt.Default
	}

	if s == "" {
		return kindNumber, ""
	}
	code, ok := styles.NumberFormat(s)
	if !ok {
		return kindUnresolved, ""
	}
	if isDateFormat(code) {
		return kindDate, datefmt.Default
	}
	return kindNumber, code
}

// interpreter renders raw cell payloads to their canonical text.
type interpreter struct {
	sst      *SharedStrings
	styles   *Styles
	date1904 bool
}

// render returns the text stored in a row for a cell of kind k whose payload
// is raw.
func (in *interpreter) render(k cellKind, format, raw string) string {
	raw = strings.TrimSpace(raw)

	switch k {
	case kindBool:
		if raw == "" {
			return ""
		}
		if raw[0] == '0' {
			return "FALSE"
		}
		return "TRUE"
	case kindError:
		return `"ERROR:` + raw + `"`
	case kindFormula:
		return `"` + raw + `"`
	case kindInline:
		return raw
	case kindShared:
		return in.sst.Resolve(raw)
	case kindNumber:
		if format == "" || raw == "" {
			return raw
		}
		return strings.TrimSpace(formatNumber(raw, format))
	case kindDate:
		return in.renderSerial(raw, format)
	case kindISODate:
		return renderISODate(raw, format)
	default:
		// Unresolved formats render as blank.
		return ""
	}
}

func (in *interpreter) renderSerial(raw, format string) string {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	t, err := excelize.ExcelDateToTime(serial, in.date1904)
	if err != nil {
		return raw
	}
	return strings.ReplaceAll(datefmt.Format(t.Round(time.Second), format), "T", " ")
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"15:04:05",
}

func renderISODate(raw, format string) string {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return strings.ReplaceAll(datefmt.Format(t, format), "T", " ")
		}
	}
	return raw
}
