// Package cellref converts spreadsheet cell references ("AB12") to zero-based
// column indexes and back, and counts the empty cells a sparse row omits
// between two references.
package cellref

import "strings"

// maxWidth is the letter-run width of the last addressable column (XFD).
const maxWidth = 3

// sentinel pads short letter runs; it sorts one below 'A'.
const sentinel = '@'

// Split separates a reference into its column letters and row digits.
// The letters are upper-cased.
func Split(ref string) (col, row string) {
	i := 0
	for i < len(ref) && isLetter(ref[i]) {
		i++
	}
	return strings.ToUpper(ref[:i]), ref[i:]
}

// ColumnIndex decodes the letter run of ref using base-26 positional
// arithmetic: A1 is 0, Z1 is 25, AA1 is 26. A reference without letters
// decodes to -1.
func ColumnIndex(ref string) int {
	col, _ := Split(ref)
	n := 0
	for i := 0; i < len(col); i++ {
		n = n*26 + int(col[i]-'A'+1)
	}
	return n - 1
}

// ColumnName encodes a zero-based column index as letters: 0 is "A", 26 is "AA".
func ColumnName(index int) string {
	if index < 0 {
		return ""
	}
	var b [maxWidth + 2]byte
	n := len(b)
	for index >= 0 {
		n--
		b[n] = byte('A' + index%26)
		index = index/26 - 1
	}
	return string(b[n:])
}

// CountNullCells returns how many cells lie strictly between prev and ref in
// the same row, i.e. the number of empty cells a sparse row omitted. Both letter
// runs are left-padded to equal width with a sentinel before taking the base-26
// difference. An empty prev means there was no earlier cell; the result is then
// the number of cells before ref.
//
//	CountNullCells("C5", "A5") == 1
func CountNullCells(ref, prev string) int {
	if prev == "" {
		return ColumnIndex(ref)
	}
	a := pad(ref)
	b := pad(prev)
	diff := 0
	for i := 0; i < maxWidth; i++ {
		diff = diff*26 + int(a[i]) - int(b[i])
	}
	return diff - 1
}

func pad(ref string) string {
	col, _ := Split(ref)
	if len(col) >= maxWidth {
		return col[len(col)-maxWidth:]
	}
	return strings.Repeat(string(sentinel), maxWidth-len(col)) + col
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
