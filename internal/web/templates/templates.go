// Package templates renders the HTML views of the import server. Views live
// in the .templ files; regenerate the *_templ.go files with `templ generate`
// after editing them.
package templates

import (
	"fmt"
	"net/url"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/schema"
)

//go:generate templ generate

// SheetReport is one sheet of an import report.
type SheetReport struct {
	Summary core.SheetSummary
	Invalid []schema.InvalidRow
	Hidden  int // invalid rows left out of Invalid
}

// startsGroup reports whether layouts[i] opens a new named group.
func startsGroup(layouts []core.LayoutInfo, i int) bool {
	g := layouts[i].Group
	return g != "" && (i == 0 || layouts[i-1].Group != g)
}

func layoutURL(key, action string) templ.SafeURL {
	return templ.URL("/api/layouts/" + url.PathEscape(key) + "/" + action)
}

func errorsURL(id string) templ.SafeURL {
	return templ.URL("/api/import/" + url.PathEscape(id) + "/errors")
}

func sheetCounts(st core.JobStatus, sum core.SheetSummary) string {
	s := fmt.Sprintf("%d rows: %d valid, %d invalid", sum.Rows, sum.Valid, sum.Invalid)
	if sum.Dropped > 0 {
		s += fmt.Sprintf(", %d dropped", sum.Dropped)
	}
	if n, ok := st.Persisted[sum.Schema]; ok {
		s += fmt.Sprintf(", %d saved", n)
	}
	return s
}

func hasInvalid(sheets []SheetReport) bool {
	for _, sh := range sheets {
		if sh.Summary.Invalid > 0 {
			return true
		}
	}
	return false
}
