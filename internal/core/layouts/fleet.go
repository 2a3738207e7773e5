package layouts

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/sheetimport/internal/coerce"
	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/schema"
)

func init() {
	registerFleet()
}

// Station is a place vehicles are based at.
type Station struct {
	ID        string
	Name      string
	Kind      string
	Longitude float64
	Latitude  float64
	Capacity  int32
	Opened    *time.Time
}

// Vehicle is one fleet vehicle.
type Vehicle struct {
	Plate         string
	StationID     string
	Model         string
	Seats         int32
	Electric      bool
	MaxSpeed      float64
	Heading       *float64
	PurchasePrice pgtype.Numeric
	LastService   pgtype.Timestamp
}

// Stations binds the first sheet of the fleet workbook.
var Stations = schema.New("stations",
	schema.Field(schema.FieldSpec{Name: "id", Title: "Station ID", Order: 0, Type: coerce.Text, Required: true, MaxLength: 16,
		Comment: "Unique code, e.g. DEP-01"},
		func(s *Station) *string { return &s.ID }),
	schema.Field(schema.FieldSpec{Name: "name", Title: "Name", Order: 1, Type: coerce.Text, Required: true, MaxLength: 120},
		func(s *Station) *string { return &s.Name }),
	schema.Field(schema.FieldSpec{Name: "kind", Title: "Kind", Order: 2, Type: coerce.Text, Enums: []string{"depot", "stop", "terminal"}},
		func(s *Station) *string { return &s.Kind }),
	schema.Field(schema.FieldSpec{Name: "longitude", Title: "Longitude", Order: 3, Type: coerce.Double, Required: true, Pattern: "longitude",
		Comment: "Decimal degrees, -180 to 180"},
		func(s *Station) *float64 { return &s.Longitude }),
	schema.Field(schema.FieldSpec{Name: "latitude", Title: "Latitude", Order: 4, Type: coerce.Double, Required: true, Pattern: "latitude",
		Comment: "Decimal degrees, -90 to 90"},
		func(s *Station) *float64 { return &s.Latitude }),
	schema.Field(schema.FieldSpec{Name: "capacity", Title: "Capacity", Order: 5, Type: coerce.Integer},
		func(s *Station) *int32 { return &s.Capacity }),
	schema.Nullable(schema.FieldSpec{Name: "opened", Title: "Opened", Order: 6, Type: coerce.Date, Format: "yyyy-MM-dd"},
		func(s *Station) **time.Time { return &s.Opened }),
)

// Vehicles binds the second sheet of the fleet workbook.
var Vehicles = schema.New("vehicles",
	schema.Field(schema.FieldSpec{Name: "plate", Title: "Plate", Order: 0, Type: coerce.Text, Required: true, Pattern: `[A-Z0-9][A-Z0-9-]{1,9}`,
		Comment: "Upper-case letters, digits and dashes"},
		func(v *Vehicle) *string { return &v.Plate }),
	schema.Field(schema.FieldSpec{Name: "station_id", Title: "Station ID", Order: 1, Type: coerce.Text, Required: true, MaxLength: 16},
		func(v *Vehicle) *string { return &v.StationID }),
	schema.Field(schema.FieldSpec{Name: "model", Title: "Model", Order: 2, Type: coerce.Text, MaxLength: 60},
		func(v *Vehicle) *string { return &v.Model }),
	schema.Field(schema.FieldSpec{Name: "seats", Title: "Seats", Order: 3, Type: coerce.Integer},
		func(v *Vehicle) *int32 { return &v.Seats }),
	schema.Field(schema.FieldSpec{Name: "electric", Title: "Electric", Order: 4, Type: coerce.Boolean, Enums: []string{"true", "false"}},
		func(v *Vehicle) *bool { return &v.Electric }),
	schema.Field(schema.FieldSpec{Name: "maxSpeed", Title: "Max Speed (km/h)", Order: 5, Type: coerce.Double, Required: true, Pattern: "maxSpeed"},
		func(v *Vehicle) *float64 { return &v.MaxSpeed }),
	schema.Nullable(schema.FieldSpec{Name: "angle", Title: "Heading", Order: 6, Type: coerce.Double,
		Comment: "Degrees clockwise from north"},
		func(v *Vehicle) **float64 { return &v.Heading }),
	schema.Field(schema.FieldSpec{Name: "purchase_price", Title: "Purchase Price", Order: 7, Type: coerce.Decimal},
		func(v *Vehicle) *pgtype.Numeric { return &v.PurchasePrice }),
	schema.Field(schema.FieldSpec{Name: "last_service", Title: "Last Service", Order: 8, Type: coerce.Timestamp},
		func(v *Vehicle) *pgtype.Timestamp { return &v.LastService }),
)

func registerFleet() {
	core.Register(core.LayoutDefinition{
		Info: core.LayoutInfo{
			Key:         "fleet",
			Group:       "Operations",
			Label:       "Fleet",
			Description: "Stations on the first sheet, vehicles on the second",
		},
		Sheets: []core.SheetDefinition{
			{Binder: Stations, Table: "stations"},
			{Binder: Vehicles, Table: "vehicles"},
		},
	})
}
