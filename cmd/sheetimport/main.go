// Command sheetimport imports workbooks from the command line: it validates a
// file against a layout, writes blank templates and lists the layouts.
package main

import (
	"os"

	_ "github.com/JonMunkholm/sheetimport/internal/core/layouts" // Register all layouts
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
