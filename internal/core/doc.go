// Package core provides the business logic for spreadsheet import operations.
//
// This package drives the whole import independent of any UI or transport
// layer. It can be used by web handlers, the CLI, or tests without
// modification.
//
// # Architecture
//
//   - Layouts: registered via the registry, each layout is an ordered list of
//     sheet bindings. Sheet i of a workbook binds to the i-th schema.
//   - Importer: opens a workbook (xlsx, or legacy xls by content sniffing),
//     streams each sheet's rows through its schema and collects a [Result].
//   - Service: the entry point for transports. It bounds concurrent imports,
//     tracks import jobs and optionally persists valid records.
//
// # Layout Registry
//
// Layouts are registered at init time using [Register]:
//
//	core.Register(core.LayoutDefinition{
//	    Info:   core.LayoutInfo{Key: "stations", Group: "Fleet", Label: "Stations"},
//	    Sheets: []core.SheetDefinition{{Binder: StationSchema, Table: "stations"}},
//	})
//
// # Import Flow
//
//  1. The transport spools the upload to disk ([Spool]) so it can be read at random
//  2. [Service.Start] acquires a slot from the [ImportLimiter] and returns a job ID
//  3. The [Importer] decodes one sheet at a time; rows are bound and sorted
//     into valid records and invalid rows
//  4. With persistence enabled, valid records are copied into their tables
//
// # Error Handling
//
// Field errors never abort an import; they are reported per row. Workbook
// and sheet failures are returned as *[ImportError]. Technical errors are
// mapped to user-friendly messages using [MapError].
package core
