package xlsx

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

// builtinFormats are the number formats every workbook knows without
// declaring them in numFmts. IDs 27-36 and 50-58 are locale dates; they
// resolve to their en-US forms.
var builtinFormats = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	5:  `$#,##0_);($#,##0)`,
	6:  `$#,##0_);[Red]($#,##0)`,
	7:  `$#,##0.00_);($#,##0.00)`,
	8:  `$#,##0.00_);[Red]($#,##0.00)`,
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "m/d/yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	27: "m/d/yy",
	28: "m/d/yy",
	29: "m/d/yy",
	30: "m/d/yy",
	31: "m/d/yy",
	32: "h:mm:ss",
	33: "h:mm:ss",
	34: "h:mm:ss",
	35: "h:mm:ss",
	36: "m/d/yy",
	37: "#,##0 ;(#,##0)",
	38: "#,##0 ;[Red](#,##0)",
	39: "#,##0.00;(#,##0.00)",
	40: "#,##0.00;[Red](#,##0.00)",
	41: `_(* #,##0_);_(* \(#,##0\);_(* "-"_);_(@_)`,
	42: `_("$"* #,##0_);_("$"* \(#,##0\);_("$"* "-"_);_(@_)`,
	43: `_(* #,##0.00_);_(* \(#,##0.00\);_(* "-"??_);_(@_)`,
	44: `_("$"* #,##0.00_);_("$"* \(#,##0.00\);_("$"* "-"??_);_(@_)`,
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mmss.0",
	48: "##0.0E+0",
	49: "@",
	50: "m/d/yy",
	51: "m/d/yy",
	52: "m/d/yy",
	53: "m/d/yy",
	54: "m/d/yy",
	55: "m/d/yy",
	56: "m/d/yy",
	57: "m/d/yy",
	58: "m/d/yy",
}

type xlsxStyleSheet struct {
	NumFmts []struct {
		ID   int    `xml:"numFmtId,attr"`
		Code string `xml:"formatCode,attr"`
	} `xml:"numFmts>numFmt"`
	CellXfs []struct {
		NumFmtID int `xml:"numFmtId,attr"`
	} `xml:"cellXfs>xf"`
}

// Styles resolves a cell's style index to its number format code.
type Styles struct {
	xfs    []int
	custom map[int]string
}

// LoadStyles decodes an xl/styles.xml part. The part is small, so it is
// decoded in one go rather than streamed.
func LoadStyles(r io.Reader) (*Styles, error) {
	var ss xlsxStyleSheet
	if err := xml.NewDecoder(r).Decode(&ss); err != nil {
		return nil, fmt.Errorf("decode styles: %w", err)
	}

	s := &Styles{custom: make(map[int]string, len(ss.NumFmts))}
	for _, nf := range ss.NumFmts {
		s.custom[nf.ID] = nf.Code
	}
	for _, xf := range ss.CellXfs {
		s.xfs = append(s.xfs, xf.NumFmtID)
	}
	return s, nil
}

// NumberFormat returns the format code for the style index in attr (a cell's
// s attribute). ok is false when the style or its format cannot be resolved.
func (s *Styles) NumberFormat(attr string) (code string, ok bool) {
	if s == nil {
		return "", false
	}
	idx, err := strconv.Atoi(attr)
	if err != nil || idx < 0 || idx >= len(s.xfs) {
		return "", false
	}
	id := s.xfs[idx]
	if code, ok := s.custom[id]; ok {
		return code, true
	}
	code, ok = builtinFormats[id]
	return code, ok
}
