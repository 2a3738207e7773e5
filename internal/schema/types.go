// Package schema binds assembled spreadsheet rows to typed records.
//
// A record type is described once by a [Schema]: an explicit binding table of
// [FieldSpec] metadata plus typed accessors, built with [New] and [Field]. No
// reflection is involved; each binding knows how to store its coerced value
// into the record.
//
//	var Stations = schema.New("stations",
//	    schema.Field(schema.FieldSpec{Title: "ID", Order: 0, Type: coerce.Text, Required: true, MaxLength: 36},
//	        func(s *Station) *string { return &s.ID }),
//	    schema.Field(schema.FieldSpec{Name: "longitude", Title: "Longitude", Order: 1, Type: coerce.Double},
//	        func(s *Station) *float64 { return &s.Longitude }),
//	)
package schema

import (
	"github.com/JonMunkholm/sheetimport/internal/coerce"
	"github.com/JonMunkholm/sheetimport/internal/datefmt"
)

// FieldSpec is the declarative metadata of one bound field.
type FieldSpec struct {
	Name      string      // Stable field key (e.g. "longitude"); also the COPY column
	Title     string      // Column title shown to users; key of the error map
	Order     int         // Zero-based column the field binds to
	Type      coerce.Kind // Coercion strategy
	Format    string      // Date pattern; defaults to datefmt.Default
	Required  bool        // Value must be non-blank (and match Pattern, if set)
	Pattern   string      // Regular expression a required value must fully match
	Enums     []string    // Allowed values, when non-empty
	MaxLength int         // Maximum rune count, when > 0
	Comment   string      // Header comment for exported templates
}

// EffectiveFormat returns Format or the default date pattern.
func (f FieldSpec) EffectiveFormat() string {
	if f.Format == "" {
		return datefmt.Default
	}
	return f.Format
}

// Field error messages.
const (
	msgBlank         = "cannot be blank"
	msgInvalidFormat = "invalid format: "
	msgInvalidLength = "invalid length: "
	msgInvalidValue  = "invalid value: "
)
