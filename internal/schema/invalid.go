package schema

import (
	"encoding/json"
	"strings"
)

// FieldErrors maps field titles to their first validation message, keeping
// the order in which fields failed.
type FieldErrors struct {
	order []string
	msgs  map[string]string
}

// Add records message for title unless title already has one.
func (e *FieldErrors) Add(title, message string) {
	if e.msgs == nil {
		e.msgs = make(map[string]string)
	}
	if _, ok := e.msgs[title]; ok {
		return
	}
	e.order = append(e.order, title)
	e.msgs[title] = message
}

// Has reports whether title has an error.
func (e *FieldErrors) Has(title string) bool {
	_, ok := e.msgs[title]
	return ok
}

// Get returns the message recorded for title.
func (e *FieldErrors) Get(title string) string {
	return e.msgs[title]
}

// Len returns the number of failed fields.
func (e *FieldErrors) Len() int {
	return len(e.order)
}

// Titles returns the failed field titles in failure order.
func (e *FieldErrors) Titles() []string {
	return append([]string(nil), e.order...)
}

// Map returns a copy of the errors keyed by title.
func (e *FieldErrors) Map() map[string]string {
	out := make(map[string]string, len(e.msgs))
	for k, v := range e.msgs {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the errors as a title -> message object.
func (e FieldErrors) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Map())
}

// InvalidRow is a source row that failed validation. Cells references the
// row values for display; it is never turned into a record.
type InvalidRow struct {
	Sheet  string      `json:"sheet"`
	Row    int         `json:"row"`
	Cells  []string    `json:"cells"`
	Errors FieldErrors `json:"errors"`
}

// Format renders one "[title] message" line per failed field, joined with
// CRLF so the text reads well inside a spreadsheet cell.
func (r InvalidRow) Format() string {
	lines := make([]string, 0, r.Errors.Len())
	for _, title := range r.Errors.order {
		lines = append(lines, "["+title+"] "+r.Errors.msgs[title])
	}
	return strings.Join(lines, "\r\n")
}
