package legacy

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"
)

type fakeSheet map[int][]string

func (f fakeSheet) maxRow() int {
	m := 0
	for i := range f {
		if i > m {
			m = i
		}
	}
	return m
}

func (f fakeSheet) cells(i int) ([]string, bool) {
	row, ok := f[i]
	if !ok {
		return nil, false
	}
	return append([]string(nil), row...), true
}

func TestReader_Next(t *testing.T) {
	src := fakeSheet{
		0: {"Name", " Qty ", "Note"},
		1: {"widget", "3"},
		2: {"", "  "},
		4: {"gadget", "", "fragile", "extra"},
	}
	r := newReader("Data", src)

	var got [][]string
	var idx []int
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		got = append(got, row.Values())
		idx = append(idx, row.Index)
	}

	if want := []string{"Name", "Qty", "Note"}; !reflect.DeepEqual(r.Header(), want) {
		t.Errorf("Header() = %v, want %v", r.Header(), want)
	}
	want := [][]string{
		{"widget", "3", ""},
		{"gadget", "", "fragile", "extra"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %q, want %q", got, want)
	}
	if !reflect.DeepEqual(idx, []int{2, 5}) {
		t.Errorf("indexes = %v, want [2 5]", idx)
	}
	if r.Name() != "Data" {
		t.Errorf("Name() = %q", r.Name())
	}
}

func TestReader_HeaderOnly(t *testing.T) {
	r := newReader("Empty", fakeSheet{3: {"Only"}})
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("Next() error = %v, want io.EOF", err)
	}
	if !reflect.DeepEqual(r.Header(), []string{"Only"}) {
		t.Errorf("Header() = %v", r.Header())
	}
}

func TestOpen_NotXLS(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("definitely not a compound document")), "")
	if !errors.Is(err, ErrUnreadable) {
		t.Errorf("Open() error = %v, want ErrUnreadable", err)
	}
}
