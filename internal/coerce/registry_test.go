package coerce

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// sinkMap is a minimal ErrorSink for tests.
type sinkMap map[string]string

func (s sinkMap) Add(title, message string) {
	if _, ok := s[title]; !ok {
		s[title] = message
	}
}

func TestCoerce_Integer(t *testing.T) {
	reg := Default()

	tests := []struct {
		raw     string
		want    any
		wantErr string
	}{
		{"42", int32(42), ""},
		{"-7", int32(-7), ""},
		{"+12345678", int32(12345678), ""},
		{"12a", nil, "enter an integer"},
		{"123456789", nil, "enter an integer"},
		{"4.2", nil, "enter an integer"},
		{"", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			sink := sinkMap{}
			got := reg.Coerce("Count", Integer, tt.raw, "", sink)
			if got != tt.want {
				t.Errorf("value = %#v, want %#v", got, tt.want)
			}
			if sink["Count"] != tt.wantErr {
				t.Errorf("error = %q, want %q", sink["Count"], tt.wantErr)
			}
		})
	}
}

func TestCoerce_BlankIsNoValue(t *testing.T) {
	reg := Default()

	for _, kind := range reg.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			sink := sinkMap{}
			if got := reg.Coerce("Field", kind, "", "", sink); got != nil {
				t.Errorf("Coerce(%q) = %#v, want nil", "", got)
			}
			if len(sink) != 0 {
				t.Errorf("errors = %v, want none", sink)
			}
		})
	}

	if got := reg.Coerce("Field", Text, "abc", "", sinkMap{}); got != "abc" {
		t.Errorf("Coerce(text) = %#v, want %q", got, "abc")
	}
}

func TestCoerce_Double(t *testing.T) {
	reg := Default()

	tests := []struct {
		raw  string
		want float64
	}{
		{"1.23456789", 1.234567},
		{"-1.23456789", -1.234567},
		{"3", 3},
		{"0.1000009", 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			sink := sinkMap{}
			got := reg.Coerce("Lng", Double, tt.raw, "", sink)
			if len(sink) != 0 {
				t.Fatalf("unexpected error: %v", sink)
			}
			if got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}

	sink := sinkMap{}
	if got := reg.Coerce("Lng", Double, "1e5", "", sink); got != nil || sink["Lng"] != "enter a decimal" {
		t.Errorf("scientific notation: value = %v, errors = %v", got, sink)
	}
}

func TestCoerce_FloatAndDecimal(t *testing.T) {
	reg := Default()
	sink := sinkMap{}

	if got := reg.Coerce("F", Float, "2.5", "", sink); got != float32(2.5) {
		t.Errorf("float = %#v, want 2.5", got)
	}

	got := reg.Coerce("D", Decimal, "12345678901234567890.125", "", sink)
	n, ok := got.(pgtype.Numeric)
	if !ok || !n.Valid {
		t.Fatalf("decimal = %#v, want valid pgtype.Numeric", got)
	}
	if n.Exp != -3 {
		t.Errorf("decimal exponent = %d, want -3", n.Exp)
	}

	reg.Coerce("D2", Decimal, "1,000", "", sink)
	if sink["D2"] != "enter a decimal" {
		t.Errorf("decimal error = %q", sink["D2"])
	}
	if len(sink) != 1 {
		t.Errorf("errors = %v, want only D2", sink)
	}
}

func TestCoerce_Boolean(t *testing.T) {
	reg := Default()

	for raw, want := range map[string]any{"true": true, "false": false, "": nil} {
		sink := sinkMap{}
		if got := reg.Coerce("B", Boolean, raw, "", sink); got != want || len(sink) != 0 {
			t.Errorf("Coerce(%q) = %v (errors %v), want %v", raw, got, sink, want)
		}
	}

	sink := sinkMap{}
	reg.Coerce("B", Boolean, "TRUE", "", sink)
	if sink["B"] != "enter true/false" {
		t.Errorf("error = %q, want %q", sink["B"], "enter true/false")
	}
}

func TestCoerce_DateAndTimestamp(t *testing.T) {
	reg := Default()
	want := time.Date(2023, 11, 5, 8, 30, 0, 0, time.UTC)

	sink := sinkMap{}
	got := reg.Coerce("When", Date, "2023-11-05 08:30:00", "", sink)
	if ts, ok := got.(time.Time); !ok || !ts.Equal(want) {
		t.Errorf("date = %#v, want %v", got, want)
	}

	got = reg.Coerce("When", Timestamp, "05/11/2023", "dd/MM/yyyy", sink)
	if ts, ok := got.(pgtype.Timestamp); !ok || !ts.Valid || !ts.Time.Equal(time.Date(2023, 11, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %#v", got)
	}
	if len(sink) != 0 {
		t.Fatalf("unexpected errors: %v", sink)
	}

	reg.Coerce("When", Date, "2023/11/05", "yyyy-MM-dd", sink)
	if sink["When"] != "expected input format: yyyy-MM-dd" {
		t.Errorf("error = %q", sink["When"])
	}
}

func TestRegistry_UnknownKind(t *testing.T) {
	reg := Default()

	_, err := reg.Lookup("uuid")("abc", "")
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("Lookup(uuid) error = %v, want ErrUnknownKind", err)
	}

	sink := sinkMap{}
	if got := reg.Coerce("Id", "uuid", "abc", "", sink); got != nil {
		t.Errorf("value = %v, want nil", got)
	}
	if sink["Id"] == "" {
		t.Error("expected an error for unknown kind")
	}
}

func TestRegistry_RegisterDuplicatePanics(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Text, coerceText)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	reg.Register(Text, coerceText)
}

func TestRegistry_CustomStrategyPanicIsNoValue(t *testing.T) {
	reg := NewRegistry()
	reg.Register("boom", func(raw, format string) (any, error) {
		panic("kaboom")
	})

	sink := sinkMap{}
	if got := reg.Coerce("X", "boom", "1", "", sink); got != nil {
		t.Errorf("value = %v, want nil", got)
	}
	if len(sink) != 0 {
		t.Errorf("errors = %v, want none", sink)
	}
}

func TestRegistry_Kinds(t *testing.T) {
	kinds := Default().Kinds()
	if len(kinds) != 8 {
		t.Fatalf("Kinds() = %v, want 8 built-ins", kinds)
	}
	if kinds[0] != Boolean {
		t.Errorf("Kinds()[0] = %q, want sorted with boolean first", kinds[0])
	}
}
