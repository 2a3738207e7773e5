package layouts

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/sheetimport/internal/coerce"
	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/schema"
)

func init() {
	registerAnrokTransactions()
}

// AnrokTransaction is one row of an Anrok tax transaction report.
type AnrokTransaction struct {
	TransactionID             string
	CustomerID                string
	CustomerName              string
	OverallVatIDStatus        string
	ValidVatIDs               string
	OtherVatIDs               string
	InvoiceDate               *time.Time
	TaxDate                   *time.Time
	TransactionCurrency       string
	SalesAmount               pgtype.Numeric
	ExemptReason              string
	TaxAmount                 pgtype.Numeric
	InvoiceAmount             pgtype.Numeric
	Void                      bool
	CustomerAddressLine1      string
	CustomerAddressCity       string
	CustomerAddressRegion     string
	CustomerAddressPostalCode string
	CustomerAddressCountry    string
	CustomerCountryCode       string
	Jurisdictions             string
	JurisdictionIDs           string
	ReturnIDs                 string
}

func anrokText(order int, name, title string, ref func(*AnrokTransaction) *string) schema.Binding[AnrokTransaction] {
	return schema.Field(schema.FieldSpec{Name: name, Title: title, Order: order, Type: coerce.Text}, ref)
}

func anrokAmount(order int, name, title string, ref func(*AnrokTransaction) *pgtype.Numeric) schema.Binding[AnrokTransaction] {
	return schema.Field(schema.FieldSpec{Name: name, Title: title, Order: order, Type: coerce.Decimal}, ref)
}

func anrokDate(order int, name, title string, ref func(*AnrokTransaction) **time.Time) schema.Binding[AnrokTransaction] {
	return schema.Nullable(schema.FieldSpec{Name: name, Title: title, Order: order, Type: coerce.Date, Format: "yyyy-MM-dd"}, ref)
}

// AnrokTransactions binds the transaction export.
var AnrokTransactions = schema.New("anrok_transactions",
	schema.Field(schema.FieldSpec{Name: "transaction_id", Title: "Transaction ID", Order: 0, Type: coerce.Text, Required: true},
		func(t *AnrokTransaction) *string { return &t.TransactionID }),
	anrokText(1, "customer_id", "Customer ID", func(t *AnrokTransaction) *string { return &t.CustomerID }),
	anrokText(2, "customer_name", "Customer name", func(t *AnrokTransaction) *string { return &t.CustomerName }),
	anrokText(3, "overall_vat_id_status", "Overall VAT ID validation status", func(t *AnrokTransaction) *string { return &t.OverallVatIDStatus }),
	anrokText(4, "valid_vat_ids", "Valid VAT IDs", func(t *AnrokTransaction) *string { return &t.ValidVatIDs }),
	anrokText(5, "other_vat_ids", "Other VAT IDs", func(t *AnrokTransaction) *string { return &t.OtherVatIDs }),
	anrokDate(6, "invoice_date", "Invoice date", func(t *AnrokTransaction) **time.Time { return &t.InvoiceDate }),
	anrokDate(7, "tax_date", "Tax date", func(t *AnrokTransaction) **time.Time { return &t.TaxDate }),
	schema.Field(schema.FieldSpec{Name: "transaction_currency", Title: "Transaction currency", Order: 8, Type: coerce.Text, MaxLength: 3},
		func(t *AnrokTransaction) *string { return &t.TransactionCurrency }),
	anrokAmount(9, "sales_amount", "Sales amount", func(t *AnrokTransaction) *pgtype.Numeric { return &t.SalesAmount }),
	anrokText(10, "exempt_reason", "Exempt reasons", func(t *AnrokTransaction) *string { return &t.ExemptReason }),
	anrokAmount(11, "tax_amount", "Tax amount", func(t *AnrokTransaction) *pgtype.Numeric { return &t.TaxAmount }),
	anrokAmount(12, "invoice_amount", "Invoice amount", func(t *AnrokTransaction) *pgtype.Numeric { return &t.InvoiceAmount }),
	schema.Field(schema.FieldSpec{Name: "void", Title: "Void", Order: 13, Type: coerce.Boolean},
		func(t *AnrokTransaction) *bool { return &t.Void }),
	anrokText(14, "customer_address_line_1", "Customer address line 1", func(t *AnrokTransaction) *string { return &t.CustomerAddressLine1 }),
	anrokText(15, "customer_address_city", "Customer address city", func(t *AnrokTransaction) *string { return &t.CustomerAddressCity }),
	anrokText(16, "customer_address_region", "Customer address region", func(t *AnrokTransaction) *string { return &t.CustomerAddressRegion }),
	anrokText(17, "customer_address_postal_code", "Customer address postal code", func(t *AnrokTransaction) *string { return &t.CustomerAddressPostalCode }),
	anrokText(18, "customer_address_country", "Customer address country", func(t *AnrokTransaction) *string { return &t.CustomerAddressCountry }),
	anrokText(19, "customer_country_code", "Customer country code", func(t *AnrokTransaction) *string { return &t.CustomerCountryCode }),
	anrokText(20, "jurisdictions", "Jurisdictions", func(t *AnrokTransaction) *string { return &t.Jurisdictions }),
	anrokText(21, "jurisdiction_ids", "Jurisdictions IDs", func(t *AnrokTransaction) *string { return &t.JurisdictionIDs }),
	anrokText(22, "return_ids", "Return IDs", func(t *AnrokTransaction) *string { return &t.ReturnIDs }),
)

func registerAnrokTransactions() {
	core.Register(core.LayoutDefinition{
		Info: core.LayoutInfo{
			Key:   "anrok_transactions",
			Group: "Anrok",
			Label: "Transactions",
		},
		Sheets: []core.SheetDefinition{
			{Binder: AnrokTransactions, Table: "anrok_transactions"},
		},
	})
}
