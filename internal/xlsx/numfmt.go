package xlsx

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/nfp"
)

// numberFormat is a parsed number format code.
type numberFormat struct {
	sections []nfp.Section // positive, negative and zero sections; text sections dropped
	date     bool
}

var numberFormats sync.Map // code -> *numberFormat

// parseNumberFormat tokenizes code once and caches the result.
func parseNumberFormat(code string) *numberFormat {
	if v, ok := numberFormats.Load(code); ok {
		return v.(*numberFormat)
	}

	p := nfp.NumberFormatParser()
	nf := &numberFormat{}
	for _, sec := range p.Parse(code) {
		for _, tok := range sec.Items {
			if isDateToken(tok) {
				nf.date = true
			}
		}
		if sec.Type != nfp.TokenSectionText {
			nf.sections = append(nf.sections, sec)
		}
	}

	v, _ := numberFormats.LoadOrStore(code, nf)
	return v.(*numberFormat)
}

// isDateToken reports whether tok is a year, month, day, hour, minute or
// second token, elapsed ones ([h], [mm], [ss]) included.
func isDateToken(tok nfp.Token) bool {
	switch tok.TType {
	case nfp.TokenTypeElapsedDateTimes:
		return true
	case nfp.TokenTypeDateTimes:
		v := strings.ToLower(tok.TValue)
		return v != "" && strings.ContainsRune("ymdhs", rune(v[0]))
	}
	return false
}

// isDateFormat reports whether a number format code formats dates or times.
func isDateFormat(code string) bool {
	return parseNumberFormat(code).date
}

// formatNumber applies a number format code to raw numeric cell text. Text
// that is not a number is returned unchanged. Scientific and fraction formats
// fall back to General.
func formatNumber(raw, code string) string {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}

	sections := parseNumberFormat(code).sections
	if len(sections) == 0 {
		return general(v)
	}

	items, signed := sections[0].Items, true
	switch {
	case v < 0 && len(sections) > 1:
		items, v, signed = sections[1].Items, -v, false
	case v == 0 && len(sections) > 2:
		items = sections[2].Items
	}
	return renderSection(v, items, signed)
}

func renderSection(v float64, items []nfp.Token, signed bool) string {
	if len(items) == 0 {
		return general(v)
	}

	var (
		prefix, suffix, digits strings.Builder
		percent                int
		seenDigits             bool
	)
	lit := func(s string) {
		if seenDigits {
			suffix.WriteString(s)
		} else {
			prefix.WriteString(s)
		}
	}

	for _, tok := range items {
		switch tok.TType {
		case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder,
			nfp.TokenTypeDigitalPlaceHolder, nfp.TokenTypeDecimalPoint:
			if seenDigits && suffix.Len() > 0 {
				suffix.WriteString(tok.TValue)
				continue
			}
			seenDigits = true
			digits.WriteString(tok.TValue)
		case nfp.TokenTypeThousandsSeparator:
			if !seenDigits || suffix.Len() > 0 {
				lit(tok.TValue)
				continue
			}
			digits.WriteString(tok.TValue)
		case nfp.TokenTypeExponential, nfp.TokenTypeFraction, nfp.TokenTypeDenominator:
			return general(v)
		case nfp.TokenTypePercent:
			percent += len(tok.TValue)
			lit(tok.TValue)
		case nfp.TokenTypeGeneral, nfp.TokenTypeTextPlaceHolder:
			lit(general(v))
		case nfp.TokenTypeCurrencyLanguage:
			for _, part := range tok.Parts {
				if part.Token.TType == nfp.TokenSubTypeCurrencyString {
					lit(part.Token.TValue)
				}
			}
		case nfp.TokenTypeLiteral, nfp.TokenTypeDateTimes:
			lit(tok.TValue)
		}
		// Alignment, fill, color, condition and switch tokens print nothing.
	}

	if !seenDigits {
		return prefix.String() + suffix.String()
	}

	for range percent {
		v *= 100
	}
	num := formatDigits(math.Abs(v), digits.String())
	sign := ""
	if signed && v < 0 && strings.Trim(num, "0.,") != "" {
		sign = "-"
	}
	return sign + prefix.String() + num + suffix.String()
}

// formatDigits renders v against a placeholder run such as "#,##0.00".
func formatDigits(v float64, pattern string) string {
	intPart, fracPart, _ := strings.Cut(pattern, ".")

	// Trailing commas scale by thousands.
	for strings.HasSuffix(intPart, ",") {
		intPart = intPart[:len(intPart)-1]
		v /= 1000
	}
	group := strings.Contains(intPart, ",")
	minInt := strings.Count(intPart, "0")
	decimals := len(fracPart) - strings.Count(fracPart, ",")
	minDecimals := strings.Count(fracPart, "0")

	// Round half away from zero, as spreadsheets do.
	p := math.Pow10(decimals)
	s := strconv.FormatFloat(math.Round(v*p)/p, 'f', decimals, 64)
	whole, frac, _ := strings.Cut(s, ".")

	for len(frac) > minDecimals && strings.HasSuffix(frac, "0") {
		frac = frac[:len(frac)-1]
	}
	if whole == "0" && minInt == 0 {
		whole = ""
	}
	for len(whole) < minInt {
		whole = "0" + whole
	}
	if group {
		whole = groupThousands(whole)
	}
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// general renders v the way the General format does: integers without a
// fraction, other values with at most 15 significant digits.
func general(v float64) string {
	abs := math.Abs(v)
	if v == math.Trunc(v) && abs < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	if abs >= 1e15 || abs < 1e-9 {
		return strconv.FormatFloat(v, 'E', -1, 64)
	}
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'g', 15, 64), 64)
	return strconv.FormatFloat(r, 'f', -1, 64)
}
