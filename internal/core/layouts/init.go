// Package layouts registers the built-in workbook layouts with the core
// registry. Import it for its side effects:
//
//	import _ "github.com/JonMunkholm/sheetimport/internal/core/layouts"
//
// Each file registers one layout in init().
package layouts
