package layouts

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/sheetimport/internal/coerce"
	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/schema"
)

func init() {
	registerNetSuiteBilling()
}

// NsCustomer is a NetSuite customer with its open balances.
type NsCustomer struct {
	SalesforceID   string
	InternalID     string
	Name           string
	Duplicate      string
	CompanyName    string
	Balance        pgtype.Numeric
	UnbilledOrders pgtype.Numeric
	OverdueBalance pgtype.Numeric
	DaysOverdue    pgtype.Numeric
}

// NsSalesOrderLine is one line of a NetSuite sales order.
type NsSalesOrderLine struct {
	SfdcOppID          string
	SfdcOppLineID      string
	CustomerInternalID string
	ProductInternalID  string
	CustomerProject    string
	SoNumber           string
	DocumentDate       *time.Time
	StartDate          *time.Time
	EndDate            *time.Time
	ItemName           string
	ItemDisplayName    string
	LineStartDate      *time.Time
	LineEndDate        *time.Time
	Quantity           pgtype.Numeric
	UnitPrice          pgtype.Numeric
	AmountGross        pgtype.Numeric
	TermsDays          pgtype.Numeric
}

// NsInvoiceLine is one line of a NetSuite invoice.
type NsInvoiceLine struct {
	SfdcOppID              string
	SfdcOppLineID          string
	SfdcPriceBookID        string
	CustomerInternalID     string
	ProductInternalID      string
	Type                   string
	Date                   *time.Time
	DateDue                *time.Time
	DocumentNumber         string
	Name                   string
	Memo                   string
	Item                   string
	Qty                    pgtype.Numeric
	ContractQuantity       pgtype.Numeric
	UnitPrice              pgtype.Numeric
	Amount                 pgtype.Numeric
	StartDateLine          *time.Time
	EndDateLine            *time.Time
	Account                string
	ShippingAddressCity    string
	ShippingAddressState   string
	ShippingAddressCountry string
}

// NetSuite saved searches export US dates.
const nsDateFormat = "M/d/yyyy"

func nsText[T any](order int, name, title string, ref func(*T) *string) schema.Binding[T] {
	return schema.Field(schema.FieldSpec{Name: name, Title: title, Order: order, Type: coerce.Text}, ref)
}

func nsAmount[T any](order int, name, title string, ref func(*T) *pgtype.Numeric) schema.Binding[T] {
	return schema.Field(schema.FieldSpec{Name: name, Title: title, Order: order, Type: coerce.Decimal}, ref)
}

func nsDate[T any](order int, name, title string, ref func(*T) **time.Time) schema.Binding[T] {
	return schema.Nullable(schema.FieldSpec{Name: name, Title: title, Order: order, Type: coerce.Date, Format: nsDateFormat,
		Comment: "Month/day/year, e.g. 3/14/2024"}, ref)
}

// NsCustomers binds the customer sheet.
var NsCustomers = schema.New("ns_customers",
	nsText(0, "salesforce_id_io", "Salesforce ID (IO)", func(c *NsCustomer) *string { return &c.SalesforceID }),
	schema.Field(schema.FieldSpec{Name: "internal_id", Title: "Internal ID", Order: 1, Type: coerce.Text, Required: true, Pattern: `[0-9]+`},
		func(c *NsCustomer) *string { return &c.InternalID }),
	nsText(2, "name", "Name", func(c *NsCustomer) *string { return &c.Name }),
	nsText(3, "duplicate", "Duplicate", func(c *NsCustomer) *string { return &c.Duplicate }),
	nsText(4, "company_name", "Company Name", func(c *NsCustomer) *string { return &c.CompanyName }),
	nsAmount(5, "balance", "Balance", func(c *NsCustomer) *pgtype.Numeric { return &c.Balance }),
	nsAmount(6, "unbilled_orders", "Unbilled Orders", func(c *NsCustomer) *pgtype.Numeric { return &c.UnbilledOrders }),
	nsAmount(7, "overdue_balance", "Overdue Balance", func(c *NsCustomer) *pgtype.Numeric { return &c.OverdueBalance }),
	nsAmount(8, "days_overdue", "Days Overdue", func(c *NsCustomer) *pgtype.Numeric { return &c.DaysOverdue }),
)

// NsSalesOrders binds the sales order detail sheet.
var NsSalesOrders = schema.New("ns_so_detail",
	nsText(0, "sfdc_opp_id", "SFDC Opportunity ID", func(l *NsSalesOrderLine) *string { return &l.SfdcOppID }),
	nsText(1, "sfdc_opp_line_id", "SFDC Opportunity Line ID", func(l *NsSalesOrderLine) *string { return &l.SfdcOppLineID }),
	nsText(2, "customer_internal_id", "Customer Internal ID", func(l *NsSalesOrderLine) *string { return &l.CustomerInternalID }),
	nsText(3, "product_internal_id", "Product Internal ID", func(l *NsSalesOrderLine) *string { return &l.ProductInternalID }),
	nsText(4, "customer_project", "Customer:Project", func(l *NsSalesOrderLine) *string { return &l.CustomerProject }),
	schema.Field(schema.FieldSpec{Name: "so_number", Title: "SO Number", Order: 5, Type: coerce.Text, Required: true},
		func(l *NsSalesOrderLine) *string { return &l.SoNumber }),
	nsDate(6, "document_date", "Document Date", func(l *NsSalesOrderLine) **time.Time { return &l.DocumentDate }),
	nsDate(7, "start_date", "Start Date", func(l *NsSalesOrderLine) **time.Time { return &l.StartDate }),
	nsDate(8, "end_date", "End Date", func(l *NsSalesOrderLine) **time.Time { return &l.EndDate }),
	nsText(9, "item_name", "Item", func(l *NsSalesOrderLine) *string { return &l.ItemName }),
	nsText(10, "item_display_name", "Item Display Name", func(l *NsSalesOrderLine) *string { return &l.ItemDisplayName }),
	nsDate(11, "line_start_date", "Line Start Date", func(l *NsSalesOrderLine) **time.Time { return &l.LineStartDate }),
	nsDate(12, "line_end_date", "Line End Date", func(l *NsSalesOrderLine) **time.Time { return &l.LineEndDate }),
	nsAmount(13, "quantity", "Quantity", func(l *NsSalesOrderLine) *pgtype.Numeric { return &l.Quantity }),
	nsAmount(14, "unit_price", "Unit Price", func(l *NsSalesOrderLine) *pgtype.Numeric { return &l.UnitPrice }),
	nsAmount(15, "amount_gross", "Amount (Gross)", func(l *NsSalesOrderLine) *pgtype.Numeric { return &l.AmountGross }),
	nsAmount(16, "terms_days_till_net_due", "Terms Days Till Net Due", func(l *NsSalesOrderLine) *pgtype.Numeric { return &l.TermsDays }),
)

// NsInvoices binds the invoice detail sheet.
var NsInvoices = schema.New("ns_invoice_detail",
	nsText(0, "sfdc_opp_id", "SFDC Opportunity ID", func(l *NsInvoiceLine) *string { return &l.SfdcOppID }),
	nsText(1, "sfdc_opp_line_id", "SFDC Opportunity Line ID", func(l *NsInvoiceLine) *string { return &l.SfdcOppLineID }),
	nsText(2, "sfdc_pricebook_id", "SFDC Price Book ID", func(l *NsInvoiceLine) *string { return &l.SfdcPriceBookID }),
	nsText(3, "customer_internal_id", "Customer Internal ID", func(l *NsInvoiceLine) *string { return &l.CustomerInternalID }),
	nsText(4, "product_internal_id", "Product Internal ID", func(l *NsInvoiceLine) *string { return &l.ProductInternalID }),
	schema.Field(schema.FieldSpec{Name: "type", Title: "Type", Order: 5, Type: coerce.Text, Enums: []string{"Invoice", "Credit Memo"}},
		func(l *NsInvoiceLine) *string { return &l.Type }),
	nsDate(6, "date", "Date", func(l *NsInvoiceLine) **time.Time { return &l.Date }),
	nsDate(7, "date_due", "Date Due", func(l *NsInvoiceLine) **time.Time { return &l.DateDue }),
	schema.Field(schema.FieldSpec{Name: "document_number", Title: "Document Number", Order: 8, Type: coerce.Text, Required: true},
		func(l *NsInvoiceLine) *string { return &l.DocumentNumber }),
	nsText(9, "name", "Name", func(l *NsInvoiceLine) *string { return &l.Name }),
	nsText(10, "memo", "Memo", func(l *NsInvoiceLine) *string { return &l.Memo }),
	nsText(11, "item", "Item", func(l *NsInvoiceLine) *string { return &l.Item }),
	nsAmount(12, "qty", "Quantity", func(l *NsInvoiceLine) *pgtype.Numeric { return &l.Qty }),
	nsAmount(13, "contract_quantity", "Contract Quantity", func(l *NsInvoiceLine) *pgtype.Numeric { return &l.ContractQuantity }),
	nsAmount(14, "unit_price", "Unit Price", func(l *NsInvoiceLine) *pgtype.Numeric { return &l.UnitPrice }),
	nsAmount(15, "amount", "Amount", func(l *NsInvoiceLine) *pgtype.Numeric { return &l.Amount }),
	nsDate(16, "start_date_line", "Start Date (Line)", func(l *NsInvoiceLine) **time.Time { return &l.StartDateLine }),
	nsDate(17, "end_date_line_level", "End Date (Line)", func(l *NsInvoiceLine) **time.Time { return &l.EndDateLine }),
	nsText(18, "account", "Account", func(l *NsInvoiceLine) *string { return &l.Account }),
	nsText(19, "shipping_address_city", "Shipping City", func(l *NsInvoiceLine) *string { return &l.ShippingAddressCity }),
	nsText(20, "shipping_address_state", "Shipping State", func(l *NsInvoiceLine) *string { return &l.ShippingAddressState }),
	nsText(21, "shipping_address_country", "Shipping Country", func(l *NsInvoiceLine) *string { return &l.ShippingAddressCountry }),
)

func registerNetSuiteBilling() {
	core.Register(core.LayoutDefinition{
		Info: core.LayoutInfo{
			Key:         "ns_billing",
			Group:       "NetSuite",
			Label:       "Customers, Orders & Invoices",
			Description: "Customers, sales order lines and invoice lines on three sheets",
		},
		Sheets: []core.SheetDefinition{
			{Binder: NsCustomers, Table: "ns_customers"},
			{Binder: NsSalesOrders, Table: "ns_so_detail"},
			{Binder: NsInvoices, Table: "ns_invoice_detail"},
		},
	})
}
