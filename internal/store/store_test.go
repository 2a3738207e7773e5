package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/sheetimport/internal/coerce"
	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/schema"
)

type depot struct {
	Code   string
	City   string
	Bays   int32
	Opened time.Time
	Note   *string
}

func depotSchema() *schema.Schema[depot] {
	return schema.New("depots",
		schema.Field(schema.FieldSpec{Name: "code", Title: "Code", Order: 0, Type: coerce.Text},
			func(d *depot) *string { return &d.Code }),
		schema.Field(schema.FieldSpec{Title: "City Name", Order: 1, Type: coerce.Text},
			func(d *depot) *string { return &d.City }),
		schema.Field(schema.FieldSpec{Name: "bays", Title: "Bays", Order: 2, Type: coerce.Integer},
			func(d *depot) *int32 { return &d.Bays }),
		schema.Field(schema.FieldSpec{Name: "opened", Title: "Opened", Order: 3, Type: coerce.Date},
			func(d *depot) *time.Time { return &d.Opened }),
		schema.Nullable(schema.FieldSpec{Name: "note", Title: "Note", Order: 4, Type: coerce.Text},
			func(d *depot) **string { return &d.Note }),
	)
}

type copyCall struct {
	table   pgx.Identifier
	columns []string
	rows    [][]any
}

type fakeCopier struct {
	calls []copyCall
	err   error
}

func (f *fakeCopier) CopyFrom(_ context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	call := copyCall{table: table, columns: columns}
	for src.Next() {
		values, err := src.Values()
		if err != nil {
			return 0, err
		}
		call.rows = append(call.rows, values)
	}
	if err := src.Err(); err != nil {
		return 0, err
	}
	f.calls = append(f.calls, call)
	return int64(len(call.rows)), nil
}

func layout(tables ...string) core.LayoutDefinition {
	def := core.LayoutDefinition{Info: core.LayoutInfo{Key: "depots"}}
	for _, t := range tables {
		def.Sheets = append(def.Sheets, core.SheetDefinition{Binder: depotSchema(), Table: t})
	}
	return def
}

func TestCopySheets(t *testing.T) {
	note := "corner lot"
	opened := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)

	res := core.NewResult()
	res.AddSheet(core.SheetSummary{Schema: "depots"}, []any{
		&depot{Code: "D1", City: "Oslo", Bays: 4, Opened: opened, Note: &note},
		&depot{Code: "D2"},
	}, nil)

	c := &fakeCopier{}
	counts, err := copySheets(context.Background(), c, layout("fleet.depots"), res)
	if err != nil {
		t.Fatalf("copySheets() error = %v", err)
	}
	if counts["depots"] != 2 {
		t.Errorf("counts = %v, want depots=2", counts)
	}
	if len(c.calls) != 1 {
		t.Fatalf("CopyFrom calls = %d, want 1", len(c.calls))
	}

	call := c.calls[0]
	if !reflect.DeepEqual(call.table, pgx.Identifier{"fleet", "depots"}) {
		t.Errorf("table = %v", call.table)
	}
	if got := strings.Join(call.columns, ","); got != "code,city_name,bays,opened,note" {
		t.Errorf("columns = %s", got)
	}

	want := [][]any{
		{"D1", "Oslo", int32(4), opened, "corner lot"},
		{"D2", nil, int32(0), nil, nil},
	}
	if !reflect.DeepEqual(call.rows, want) {
		t.Errorf("rows = %v, want %v", call.rows, want)
	}
}

func TestCopySheets_SkipsUnmappedAndEmpty(t *testing.T) {
	c := &fakeCopier{}

	counts, err := copySheets(context.Background(), c, layout(""), core.NewResult())
	if err != nil || len(counts) != 0 {
		t.Errorf("no table: counts = %v, err = %v", counts, err)
	}

	counts, err = copySheets(context.Background(), c, layout("depots"), core.NewResult())
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := counts["depots"]; !ok || n != 0 {
		t.Errorf("empty sheet: counts = %v, want depots=0", counts)
	}
	if len(c.calls) != 0 {
		t.Errorf("CopyFrom called %d times for empty results", len(c.calls))
	}
}

func TestCopySheets_SchemaCopiedOnce(t *testing.T) {
	res := core.NewResult()
	res.AddSheet(core.SheetSummary{Schema: "depots"}, []any{&depot{Code: "D1"}}, nil)

	c := &fakeCopier{}
	if _, err := copySheets(context.Background(), c, layout("depots", "depots"), res); err != nil {
		t.Fatal(err)
	}
	if len(c.calls) != 1 {
		t.Errorf("CopyFrom calls = %d, want 1", len(c.calls))
	}
}

func TestCopySheets_Errors(t *testing.T) {
	res := core.NewResult()
	res.AddSheet(core.SheetSummary{Schema: "depots"}, []any{&depot{Code: "D1"}}, nil)

	boom := errors.New("insert or update violates foreign key constraint")
	_, err := copySheets(context.Background(), &fakeCopier{err: boom}, layout("depots"), res)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped copy error", err)
	}
	if !strings.Contains(err.Error(), "copy depots into depots") {
		t.Errorf("error = %q", err)
	}
	if msg := core.MapError(err); msg.Code != "DB003" {
		t.Errorf("MapError code = %s, want DB003", msg.Code)
	}

	bad := core.NewResult()
	bad.AddSheet(core.SheetSummary{Schema: "depots"}, []any{depot{Code: "not a pointer"}}, nil)
	if _, err := copySheets(context.Background(), &fakeCopier{}, layout("depots"), bad); err == nil {
		t.Error("non-pointer record: error = nil")
	}
}

func TestColumns(t *testing.T) {
	got := Columns([]schema.FieldSpec{
		{Name: "account_id", Title: "Account ID"},
		{Title: " Transaction ID "},
		{Title: "total"},
	})
	want := []string{"account_id", "transaction_id", "total"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Columns() = %v, want %v", got, want)
	}
}

func TestDatabaseName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"postgres://u:p@localhost:5432/imports?sslmode=disable", "imports"},
		{"postgres://localhost", ""},
		{"::bad", ""},
	}
	for _, tt := range tests {
		if got := DatabaseName(tt.url); got != tt.want {
			t.Errorf("DatabaseName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
