// Package datefmt formats and parses times with the letter patterns used in
// field metadata ("yyyy-MM-dd HH:mm:ss").
package datefmt

import (
	"time"

	"github.com/vjeantet/jodaTime"
)

// Default is the pattern applied when a field declares none.
const Default = "yyyy-MM-dd HH:mm:ss"

// Format renders t with a letter pattern.
func Format(t time.Time, pattern string) string {
	return jodaTime.Format(pattern, t)
}

// Parse reads value with a letter pattern in loc. A nil loc means UTC.
func Parse(pattern, value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return jodaTime.ParseInLocation(pattern, value, loc.String())
}
