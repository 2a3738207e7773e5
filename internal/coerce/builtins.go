package coerce

// builtins.go holds the strategies for the built-in kinds.
//
// Every strategy treats blank input as "no value, no error"; whether a field
// may be blank is decided by the binder, not here.

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/sheetimport/internal/datefmt"
	"github.com/jackc/pgx/v5/pgtype"
)

var (
	integerRegex = regexp.MustCompile(`^[-+]?[0-9]{1,8}$`)
	decimalRegex = regexp.MustCompile(`^[-+]?\d+(\.\d+)?$`)
)

// doubleScale is the number of fraction digits kept for double values.
const doubleScale = 6

var (
	errInteger = errors.New("enter an integer")
	errDecimal = errors.New("enter a decimal")
	errBoolean = errors.New("enter true/false")
)

// Location is the time zone dates are parsed in.
var Location = time.UTC

func coerceText(raw, _ string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	return raw, nil
}

func coerceInteger(raw, _ string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	if !integerRegex.MatchString(raw) {
		return nil, errInteger
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil, errInteger
	}
	return int32(n), nil
}

func coerceFloat(raw, _ string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	if !decimalRegex.MatchString(raw) {
		return nil, errDecimal
	}
	f, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return nil, errDecimal
	}
	return float32(f), nil
}

// coerceDouble keeps at most doubleScale fraction digits, dropping the rest
// (rounding toward zero).
func coerceDouble(raw, _ string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	if !decimalRegex.MatchString(raw) {
		return nil, errDecimal
	}
	f, err := strconv.ParseFloat(truncateFraction(raw, doubleScale), 64)
	if err != nil {
		return nil, errDecimal
	}
	return f, nil
}

func coerceDecimal(raw, _ string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	if !decimalRegex.MatchString(raw) {
		return nil, errDecimal
	}
	var n pgtype.Numeric
	if err := n.Scan(raw); err != nil {
		return nil, errDecimal
	}
	return n, nil
}

func coerceBoolean(raw, _ string) (any, error) {
	switch raw {
	case "":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return nil, errBoolean
}

func coerceDate(raw, format string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := parseTime(raw, format)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func coerceTimestamp(raw, format string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := parseTime(raw, format)
	if err != nil {
		return nil, err
	}
	return pgtype.Timestamp{Time: t, Valid: true}, nil
}

func parseTime(raw, format string) (time.Time, error) {
	if format == "" {
		format = datefmt.Default
	}
	t, err := datefmt.Parse(format, raw, Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected input format: %s", format)
	}
	return t, nil
}

// truncateFraction cuts a decimal string to at most scale fraction digits.
func truncateFraction(s string, scale int) string {
	dot := strings.IndexByte(s, '.')
	if dot < 0 || len(s)-dot-1 <= scale {
		return s
	}
	return s[:dot+1+scale]
}
