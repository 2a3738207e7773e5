package export

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sheetimport/internal/coerce"
	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/schema"
)

type item struct {
	Code   string
	Kind   string
	Qty    int32
	Ratio  float32
	Weight float64
	Price  pgtype.Numeric
	Active bool
	Due    time.Time
	Seen   pgtype.Timestamp
	Note   *string
}

func itemSchema() *schema.Schema[item] {
	return schema.New("items",
		schema.Field(schema.FieldSpec{Name: "code", Title: "Code", Order: 0, Type: coerce.Text, Required: true, MaxLength: 8, Comment: "Item code"},
			func(i *item) *string { return &i.Code }),
		schema.Field(schema.FieldSpec{Name: "kind", Title: "Kind", Order: 1, Type: coerce.Text, Enums: []string{"part", "tool"}},
			func(i *item) *string { return &i.Kind }),
		schema.Field(schema.FieldSpec{Name: "qty", Title: "Qty", Order: 2, Type: coerce.Integer},
			func(i *item) *int32 { return &i.Qty }),
		schema.Field(schema.FieldSpec{Name: "ratio", Title: "Ratio", Order: 3, Type: coerce.Float},
			func(i *item) *float32 { return &i.Ratio }),
		schema.Field(schema.FieldSpec{Name: "weight", Title: "Weight", Order: 4, Type: coerce.Double},
			func(i *item) *float64 { return &i.Weight }),
		schema.Field(schema.FieldSpec{Name: "price", Title: "Price", Order: 5, Type: coerce.Decimal},
			func(i *item) *pgtype.Numeric { return &i.Price }),
		schema.Field(schema.FieldSpec{Name: "active", Title: "Active", Order: 6, Type: coerce.Boolean},
			func(i *item) *bool { return &i.Active }),
		schema.Field(schema.FieldSpec{Name: "due", Title: "Due", Order: 7, Type: coerce.Date, Format: "yyyy-MM-dd"},
			func(i *item) *time.Time { return &i.Due }),
		schema.Field(schema.FieldSpec{Name: "seen", Title: "Seen", Order: 8, Type: coerce.Timestamp},
			func(i *item) *pgtype.Timestamp { return &i.Seen }),
		schema.Nullable(schema.FieldSpec{Name: "note", Title: "Note", Order: 9, Type: coerce.Text},
			func(i *item) **string { return &i.Note }),
	)
}

func itemLayout() core.LayoutDefinition {
	return core.LayoutDefinition{
		Info:   core.LayoutInfo{Key: "items", Group: "test", Label: "Items"},
		Sheets: []core.SheetDefinition{{Binder: itemSchema()}},
	}
}

func numeric(t *testing.T, s string) pgtype.Numeric {
	t.Helper()
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		t.Fatalf("Scan(%q): %v", s, err)
	}
	return n
}

func numericString(n pgtype.Numeric) string {
	v, _ := n.Value()
	s, _ := v.(string)
	return s
}

func reimport(t *testing.T, data []byte) *core.Result {
	t.Helper()
	im := core.NewImporter(core.Options{StrictHeader: true}, nil)
	res, err := im.Import(context.Background(), bytes.NewReader(data), int64(len(data)), itemLayout().Binders())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	return res
}

func TestRecords_RoundTrip(t *testing.T) {
	note := "fragile, handle with care"
	want := []*item{
		{
			Code: "007", Kind: "tool", Qty: 12, Ratio: 0.25, Weight: 1234.567891,
			Price: numeric(t, "19.90"), Active: true,
			Due:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Seen: pgtype.Timestamp{Time: time.Date(2024, 3, 2, 17, 45, 30, 0, time.UTC), Valid: true},
			Note: &note,
		},
		{Code: "B-2", Qty: -3, Due: time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)},
	}

	res := core.NewResult()
	res.AddSheet(core.SheetSummary{Schema: "items"}, []any{want[0], want[1]}, nil)

	var buf bytes.Buffer
	if err := Records(&buf, itemLayout(), res); err != nil {
		t.Fatalf("Records() error = %v", err)
	}

	back := reimport(t, buf.Bytes())
	if inv := back.Invalid("items"); len(inv) != 0 {
		t.Fatalf("invalid rows after round trip: %+v", inv[0].Errors.Map())
	}
	got := core.RecordsOf[item](back, "items")
	if len(got) != len(want) {
		t.Fatalf("records = %d, want %d", len(got), len(want))
	}

	for i := range want {
		w, g := want[i], got[i]
		if g.Code != w.Code || g.Kind != w.Kind || g.Qty != w.Qty || g.Ratio != w.Ratio ||
			g.Weight != w.Weight || g.Active != w.Active {
			t.Errorf("record %d = %+v, want %+v", i, *g, *w)
		}
		if numericString(g.Price) != numericString(w.Price) {
			t.Errorf("record %d price = %q, want %q", i, numericString(g.Price), numericString(w.Price))
		}
		if !g.Due.Equal(w.Due) {
			t.Errorf("record %d due = %v, want %v", i, g.Due, w.Due)
		}
		if g.Seen.Valid != w.Seen.Valid || !g.Seen.Time.Equal(w.Seen.Time) {
			t.Errorf("record %d seen = %+v, want %+v", i, g.Seen, w.Seen)
		}
		if (g.Note == nil) != (w.Note == nil) || (g.Note != nil && *g.Note != *w.Note) {
			t.Errorf("record %d note = %v, want %v", i, g.Note, w.Note)
		}
	}
}

func TestTemplate(t *testing.T) {
	var buf bytes.Buffer
	if err := Template(&buf, itemLayout()); err != nil {
		t.Fatalf("Template() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 1 || got[0] != "items" {
		t.Fatalf("sheets = %v", got)
	}

	rows, err := f.GetRows("items")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || strings.Join(rows[0], ",") != "Code,Kind,Qty,Ratio,Weight,Price,Active,Due,Seen,Note" {
		t.Errorf("rows = %q", rows)
	}

	dvs, err := f.GetDataValidations("items")
	if err != nil {
		t.Fatal(err)
	}
	if len(dvs) != 2 {
		t.Errorf("data validations = %d, want 2 (enum and length)", len(dvs))
	}

	comments, err := f.GetComments("items")
	if err != nil {
		t.Fatal(err)
	}
	texts := map[string]string{}
	for _, c := range comments {
		text := c.Text
		for _, run := range c.Paragraph {
			text += run.Text
		}
		texts[c.Cell] = text
	}
	if !strings.Contains(texts["A1"], "Item code") || !strings.Contains(texts["A1"], "Required") {
		t.Errorf("A1 comment = %q", texts["A1"])
	}
	if !strings.Contains(texts["H1"], "yyyy-MM-dd") {
		t.Errorf("H1 comment = %q", texts["H1"])
	}

	res := reimport(t, buf.Bytes())
	if sheets := res.Sheets(); len(sheets) != 1 || sheets[0].Rows != 0 {
		t.Errorf("template import = %+v, want one empty sheet", sheets)
	}
}

func TestInvalidRows(t *testing.T) {
	src := excelize.NewFile()
	defer src.Close()
	rows := [][]any{
		{"Code", "Kind", "Qty", "Ratio", "Weight", "Price", "Active", "Due", "Seen", "Note"},
		{"A-1", "part", "x", "", "", "", "true", "2024-01-01"},
		{"A-2", "nope", "5"},
		{"A-3", "tool", "7"},
	}
	for i, r := range rows {
		vals := r
		if err := src.SetSheetRow("Sheet1", cellName(0, i+1), &vals); err != nil {
			t.Fatal(err)
		}
	}
	srcBuf, err := src.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	res := reimport(t, srcBuf.Bytes())
	if got := len(res.Invalid("items")); got != 2 {
		t.Fatalf("invalid = %d, want 2", got)
	}

	var buf bytes.Buffer
	if err := InvalidRows(&buf, itemLayout(), res); err != nil {
		t.Fatalf("InvalidRows() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got, err := f.GetRows("items")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(got))
	}
	if got[0][10] != ErrorsTitle {
		t.Errorf("header = %q", got[0])
	}
	if got[1][0] != "A-1" || got[1][10] != "[Qty] enter an integer" {
		t.Errorf("row 2 = %q", got[1])
	}
	if got[2][10] != "[Kind] invalid value: nope" {
		t.Errorf("row 3 = %q", got[2])
	}

	// Fix the report and import it again.
	if err := f.SetCellStr("items", "C2", "3"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellStr("items", "B3", "part"); err != nil {
		t.Fatal(err)
	}
	fixed, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	again := reimport(t, fixed.Bytes())
	if len(again.Invalid("items")) != 0 || len(again.Records("items")) != 2 {
		t.Errorf("after fix: %d valid, %d invalid", len(again.Records("items")), len(again.Invalid("items")))
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"vehicles", "vehicles"},
		{"a/b:c", "a_b_c"},
		{"", "Sheet3"},
		{strings.Repeat("x", 40), strings.Repeat("x", 31)},
	}
	for _, tt := range tests {
		if got := sheetName(tt.in, 2); got != tt.want {
			t.Errorf("sheetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
