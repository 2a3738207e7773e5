package xlsx

import (
	"strconv"
	"testing"
	"time"

	"github.com/JonMunkholm/sheetimport/internal/datefmt"
)

const (
	accounting41 = `_(* #,##0_);_(* \(#,##0\);_(* "-"_);_(@_)`
	accounting44 = `_("$"* #,##0.00_);_("$"* \(#,##0.00\);_("$"* "-"??_);_(@_)`
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		raw, code, want string
	}{
		{"42", "General", "42"},
		{"0.30000000000000004", "General", "0.3"},
		{"3.5", "0", "4"},
		{"3.14159", "0.00", "3.14"},
		{"1234567.891", "#,##0", "1,234,568"},
		{"1234567.891", "#,##0.00", "1,234,567.89"},
		{"-1234.5", "#,##0.00", "-1,234.50"},
		{"-1234.5", "#,##0.00;(#,##0.00)", "(1,234.50)"},
		{"0.125", "0%", "13%"},
		{"0.125", "0.00%", "12.50%"},
		{"12345", "0.00E+00", "12345"},
		{"12", "@", "12"},
		{"0.5", "#.##", ".5"},
		{"1500000", "#,##0,", "1,500"},
		{"9.5", `"$"#,##0.00`, "$9.50"},
		{"9.5", `0.0" kg"`, "9.5 kg"},
		{"abc", "0.00", "abc"},
		{"1234.5", "[$$-409]#,##0.00", "$1,234.50"},
		{"1234.5", "[$€-407]#,##0.00", "€1,234.50"},
		{"5", "$#,##0_);($#,##0)", "$5"},
		{"-5", "$#,##0_);($#,##0)", "($5)"},
		{"-1234.5", "$#,##0.00_);[Red]($#,##0.00)", "($1,234.50)"},
		{"99", accounting44, "$99.00"},
		{"-5", accounting41, "(5)"},
		{"0", accounting41, "-"},
		{"1234", accounting41, "1,234"},
	}

	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.raw, func(t *testing.T) {
			if got := formatNumber(tt.raw, tt.code); got != tt.want {
				t.Errorf("formatNumber(%q, %q) = %q, want %q", tt.raw, tt.code, got, tt.want)
			}
		})
	}
}

func TestIsDateFormat(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"m/d/yy", true},
		{"yyyy-mm-dd hh:mm:ss", true},
		{"h:mm AM/PM", true},
		{"[$-409]mmmm d, yyyy", true},
		{"General", false},
		{"0.00", false},
		{`#,##0" days"`, false},
		{"[Red]#,##0", false},
		{"@", false},
		{"mmm", true},
		{"mmmm", true},
		{"mm", true},
		{"mmm-yy", true},
		{"d-mmm", true},
		{"[h]:mm:ss", true},
		{"[mm]:ss", true},
		{"mm:ss.0", true},
		{`0.0" m"`, false},
		{"[$$-409]#,##0.00", false},
		{accounting41, false},
		{accounting44, false},
	}
	for _, tt := range tests {
		if got := isDateFormat(tt.code); got != tt.want {
			t.Errorf("isDateFormat(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestInterpreter_Render(t *testing.T) {
	in := &interpreter{sst: NewSharedStrings("first")}

	tests := []struct {
		name   string
		kind   cellKind
		format string
		raw    string
		want   string
	}{
		{"bool false", kindBool, "", "0", "FALSE"},
		{"bool true", kindBool, "", "1", "TRUE"},
		{"error", kindError, "", "#DIV/0!", `"ERROR:#DIV/0!"`},
		{"formula", kindFormula, "", "x", `"x"`},
		{"shared", kindShared, "", "0", "first"},
		{"shared fallback", kindShared, "", "7", "7"},
		{"inline trimmed", kindInline, "", "  hi ", "hi"},
		{"number padding", kindNumber, "#,##0_);(#,##0)", "1000", "1,000"},
		{"date", kindDate, datefmt.Default, "45352.5", "2024-03-01 12:00:00"},
		{"iso date", kindISODate, datefmt.Default, "2024-03-01T08:30:00", "2024-03-01 08:30:00"},
		{"unresolved", kindUnresolved, "", "12", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := in.render(tt.kind, tt.format, tt.raw); got != tt.want {
				t.Errorf("render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInterpreter_Date1904(t *testing.T) {
	in := &interpreter{date1904: true}
	if got := in.render(kindDate, datefmt.Default, "43890.5"); got != "2024-03-01 12:00:00" {
		t.Errorf("render() = %q", got)
	}
}

func TestDateRoundTrip(t *testing.T) {
	in := &interpreter{}
	instant := time.Date(2023, 11, 5, 17, 45, 30, 0, time.UTC)

	// 2023-11-05 is serial 45235; 17:45:30 is 63930 seconds into the day.
	serial := 45235 + 63930.0/86400
	raw := strconv.FormatFloat(serial, 'f', -1, 64)

	rendered := in.render(kindDate, datefmt.Default, raw)
	got, err := datefmt.Parse(datefmt.Default, rendered, time.UTC)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", rendered, err)
	}
	if !got.Equal(instant) {
		t.Errorf("round trip = %v, want %v", got, instant)
	}
}

func TestCellType(t *testing.T) {
	styles := &Styles{xfs: []int{0, 14, 2, 999}, custom: map[int]string{}}

	tests := []struct {
		t, s       string
		wantKind   cellKind
		wantFormat string
	}{
		{"", "", kindNumber, ""},
		{"n", "1", kindDate, datefmt.Default},
		{"", "2", kindNumber, "0.00"},
		{"", "3", kindUnresolved, ""},
		{"s", "1", kindShared, ""},
		{"b", "", kindBool, ""},
		{"str", "", kindFormula, ""},
		{"inlineStr", "", kindInline, ""},
		{"e", "", kindError, ""},
		{"d", "", kindISODate, datefmt.Default},
	}
	for _, tt := range tests {
		k, f := cellType(tt.t, tt.s, styles)
		if k != tt.wantKind || f != tt.wantFormat {
			t.Errorf("cellType(%q, %q) = %v, %q; want %v, %q", tt.t, tt.s, k, f, tt.wantKind, tt.wantFormat)
		}
	}
}

func TestCellType_CustomMonthFormat(t *testing.T) {
	styles := &Styles{xfs: []int{164, 165}, custom: map[int]string{164: "mmmm", 165: "mmm-yy"}}

	for _, s := range []string{"0", "1"} {
		if k, f := cellType("", s, styles); k != kindDate || f != datefmt.Default {
			t.Errorf("cellType(%q) = %v, %q; want date", s, k, f)
		}
	}
}

func TestBuiltinFormats(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		date     bool
		raw      string
		want     string
	}{
		{"general and fixed", 0, 4, false, "1234.5", ""},
		{"currency", 5, 8, false, "1234.5", "$1,234.50"},
		{"percent and scientific", 9, 13, false, "", ""},
		{"dates and times", 14, 22, true, "", ""},
		{"locale dates", 27, 36, true, "", ""},
		{"negatives in parens", 37, 40, false, "-5", ""},
		{"accounting", 41, 44, false, "99", ""},
		{"minutes and text", 45, 47, true, "", ""},
		{"locale dates late", 50, 58, true, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for id := tt.from; id <= tt.to; id++ {
				code, ok := builtinFormats[id]
				if !ok || code == "" {
					t.Fatalf("builtinFormats[%d] missing", id)
				}
				if got := isDateFormat(code); got != tt.date {
					t.Errorf("isDateFormat(%d: %q) = %v, want %v", id, code, got, tt.date)
				}
				if tt.raw == "" || tt.date {
					continue
				}
				if got := formatNumber(tt.raw, code); got == "" {
					t.Errorf("formatNumber(%q, %d: %q) rendered blank", tt.raw, id, code)
				}
			}
		})
	}

	in := &interpreter{}
	for id, want := range map[int]string{5: "$1,235", 7: "$1,234.50", 42: "$1,235", 44: "$1,234.50"} {
		if got := in.render(kindNumber, builtinFormats[id], "1234.5"); got != want {
			t.Errorf("render(format %d) = %q, want %q", id, got, want)
		}
	}
}
