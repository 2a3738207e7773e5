package core

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/JonMunkholm/sheetimport/internal/schema"
)

// SheetSummary reports the outcome of one processed sheet.
type SheetSummary struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Schema  string `json:"schema"`
	Rows    int    `json:"rows"`    // non-blank data rows
	Valid   int    `json:"valid"`   // rows bound to records
	Invalid int    `json:"invalid"` // rows with field errors
	Dropped int    `json:"dropped"` // rows whose record could not be constructed
}

// Result collects the records and invalid rows of an import, keyed by schema
// name. Appends are safe for concurrent use; row order within a schema is the
// order of the appends.
type Result struct {
	mu      sync.RWMutex
	records map[string][]any
	invalid map[string][]schema.InvalidRow
	sheets  []SheetSummary
}

// NewResult returns an empty result.
func NewResult() *Result {
	return &Result{
		records: make(map[string][]any),
		invalid: make(map[string][]schema.InvalidRow),
	}
}

// AddSheet commits the outcome of one sheet.
func (r *Result) AddSheet(sum SheetSummary, records []any, invalid []schema.InvalidRow) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[sum.Schema] = append(r.records[sum.Schema], records...)
	r.invalid[sum.Schema] = append(r.invalid[sum.Schema], invalid...)
	r.sheets = append(r.sheets, sum)
}

// Records returns the valid records of a schema, each a pointer to its record type.
func (r *Result) Records(name string) []any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records[name]
}

// Invalid returns the invalid rows of a schema.
func (r *Result) Invalid(name string) []schema.InvalidRow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.invalid[name]
}

// Sheets returns the per-sheet summaries sorted by sheet index.
func (r *Result) Sheets() []SheetSummary {
	r.mu.RLock()
	out := append([]SheetSummary(nil), r.sheets...)
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Totals returns the number of valid and invalid rows across all sheets.
func (r *Result) Totals() (valid, invalid int) {
	for _, s := range r.Sheets() {
		valid += s.Valid
		invalid += s.Invalid
	}
	return valid, invalid
}

// RecordsOf returns the records of a schema as their concrete type.
func RecordsOf[T any](r *Result, name string) []*T {
	recs := r.Records(name)
	out := make([]*T, 0, len(recs))
	for _, rec := range recs {
		if v, ok := rec.(*T); ok {
			out = append(out, v)
		}
	}
	return out
}

type resultJSON struct {
	Sheets  []SheetSummary                 `json:"sheets"`
	Records map[string][]any               `json:"records,omitempty"`
	Invalid map[string][]schema.InvalidRow `json:"invalid"`
}

// MarshalJSON encodes the summaries, records and invalid rows.
func (r *Result) MarshalJSON() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := resultJSON{
		Sheets:  r.sheets,
		Records: r.records,
		Invalid: r.invalid,
	}
	return json.Marshal(out)
}
