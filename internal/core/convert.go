package core

// convert.go turns raw CSV cells into typed pgtype values.
//
// A cell is null when it exactly matches one of the standard missing-value
// markers; surrounding whitespace is significant for that test. Numeric
// parsing trims whitespace first.
//
// All to* functions return pgtype values with Valid=false for null or
// unparseable input.

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// nullTokens are the cell values read as missing.
var nullTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsNullToken reports whether a raw cell is a missing-value marker.
func IsNullToken(s string) bool {
	_, ok := nullTokens[s]
	return ok
}

// parseInt parses a trimmed base-10 integer.
func parseInt(s string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return v, err == nil
}

// parseFloat parses a trimmed decimal float. Out-of-range values become
// ±Inf. Hexadecimal float syntax is rejected.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return v, true
		}
		return 0, false
	}
	return v, true
}

// toInt8 converts a raw cell to pgtype.Int8.
func toInt8(s string) pgtype.Int8 {
	if IsNullToken(s) {
		return pgtype.Int8{}
	}
	v, ok := parseInt(s)
	return pgtype.Int8{Int64: v, Valid: ok}
}

// toFloat8 converts a raw cell to pgtype.Float8. NaN is treated as null.
func toFloat8(s string) pgtype.Float8 {
	if IsNullToken(s) {
		return pgtype.Float8{}
	}
	v, ok := parseFloat(s)
	if !ok || math.IsNaN(v) {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: v, Valid: true}
}

// toText converts a raw cell to pgtype.Text, keeping whitespace.
func toText(s string) pgtype.Text {
	if IsNullToken(s) {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
