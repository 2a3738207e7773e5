package layouts

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/sheetimport/internal/coerce"
	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/schema"
)

func init() {
	registerSfdcCatalog()
}

// SfdcCustomer is a Salesforce account.
type SfdcCustomer struct {
	AccountID    string
	AccountName  string
	LastActivity *time.Time
	Type         string
}

// SfdcPriceBookEntry is one product price in a Salesforce price book.
type SfdcPriceBookEntry struct {
	PriceBookName string
	ListPrice     pgtype.Numeric
	ProductName   string
	ProductCode   string
	ProductID     string
}

// SfdcCustomers binds the account sheet. Salesforce case-safe IDs are
// 18 characters.
var SfdcCustomers = schema.New("sfdc_customers",
	schema.Field(schema.FieldSpec{Name: "account_id_casesafe", Title: "Account ID (18)", Order: 0, Type: coerce.Text, Required: true,
		Pattern: `[a-zA-Z0-9]{18}`},
		func(c *SfdcCustomer) *string { return &c.AccountID }),
	schema.Field(schema.FieldSpec{Name: "account_name", Title: "Account Name", Order: 1, Type: coerce.Text, Required: true},
		func(c *SfdcCustomer) *string { return &c.AccountName }),
	schema.Nullable(schema.FieldSpec{Name: "last_activity", Title: "Last Activity", Order: 2, Type: coerce.Date, Format: "yyyy-MM-dd"},
		func(c *SfdcCustomer) **time.Time { return &c.LastActivity }),
	schema.Field(schema.FieldSpec{Name: "type", Title: "Type", Order: 3, Type: coerce.Text, Enums: []string{"Customer", "Prospect", "Partner"}},
		func(c *SfdcCustomer) *string { return &c.Type }),
)

// SfdcPriceBook binds the price book sheet.
var SfdcPriceBook = schema.New("sfdc_price_book",
	schema.Field(schema.FieldSpec{Name: "price_book_name", Title: "Price Book Name", Order: 0, Type: coerce.Text, Required: true},
		func(p *SfdcPriceBookEntry) *string { return &p.PriceBookName }),
	schema.Field(schema.FieldSpec{Name: "list_price", Title: "List Price", Order: 1, Type: coerce.Decimal},
		func(p *SfdcPriceBookEntry) *pgtype.Numeric { return &p.ListPrice }),
	schema.Field(schema.FieldSpec{Name: "product_name", Title: "Product Name", Order: 2, Type: coerce.Text},
		func(p *SfdcPriceBookEntry) *string { return &p.ProductName }),
	schema.Field(schema.FieldSpec{Name: "product_code", Title: "Product Code", Order: 3, Type: coerce.Text},
		func(p *SfdcPriceBookEntry) *string { return &p.ProductCode }),
	schema.Field(schema.FieldSpec{Name: "product_id_casesafe", Title: "Product ID (18)", Order: 4, Type: coerce.Text, MaxLength: 18},
		func(p *SfdcPriceBookEntry) *string { return &p.ProductID }),
)

func registerSfdcCatalog() {
	core.Register(core.LayoutDefinition{
		Info: core.LayoutInfo{
			Key:         "sfdc_catalog",
			Group:       "Salesforce",
			Label:       "Customers & Price Book",
			Description: "Accounts on the first sheet, price book entries on the second",
		},
		Sheets: []core.SheetDefinition{
			{Binder: SfdcCustomers, Table: "sfdc_customers"},
			{Binder: SfdcPriceBook, Table: "sfdc_price_book"},
		},
	})
}
