package core

import (
	"context"

	"github.com/JonMunkholm/sheetimport/internal/schema"
)

// LayoutInfo describes a layout for listings and templates.
type LayoutInfo struct {
	Key         string   `json:"key"`
	Group       string   `json:"group"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Sheets      []string `json:"sheets"` // schema names, in sheet order
}

// SheetDefinition binds one sheet position to a record schema.
type SheetDefinition struct {
	Binder schema.Binder
	Table  string // COPY target table; empty when the sheet is never persisted
}

// LayoutDefinition contains everything needed to import one kind of workbook.
type LayoutDefinition struct {
	Info   LayoutInfo
	Sheets []SheetDefinition
}

// Binders returns the schemas in sheet order.
func (d LayoutDefinition) Binders() []schema.Binder {
	out := make([]schema.Binder, len(d.Sheets))
	for i, s := range d.Sheets {
		out[i] = s.Binder
	}
	return out
}

// SupportsCopy returns true if at least one sheet has a COPY target.
func (d LayoutDefinition) SupportsCopy() bool {
	for _, s := range d.Sheets {
		if s.Table != "" {
			return true
		}
	}
	return false
}

// Persister stores the valid records of a finished import and returns the
// number of rows written per schema name.
type Persister interface {
	Persist(ctx context.Context, def LayoutDefinition, res *Result) (map[string]int64, error)
}
