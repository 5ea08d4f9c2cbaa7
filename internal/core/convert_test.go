package core

import (
	"math"
	"testing"
)

// ----------------------------------------------------------------------------
// Null token Tests
// ----------------------------------------------------------------------------

func TestIsNullToken(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"NA", true},
		{"N/A", true},
		{"n/a", true},
		{"NULL", true},
		{"null", true},
		{"NaN", true},
		{"nan", true},
		{"-nan", true},
		{"None", true},
		{"#N/A", true},
		{"<NA>", true},
		{" ", false},
		{" NA", false},
		{"na", false},
		{"none", false},
		{"0", false},
		{"-", false},
	}

	for _, tt := range tests {
		if got := IsNullToken(tt.input); got != tt.want {
			t.Errorf("IsNullToken(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// Typed conversion Tests
// ----------------------------------------------------------------------------

func TestToInt8(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue int64
	}{
		{name: "positive integer", input: "123", wantValid: true, wantValue: 123},
		{name: "negative integer", input: "-456", wantValid: true, wantValue: -456},
		{name: "surrounding whitespace", input: " 7 ", wantValid: true, wantValue: 7},
		{name: "null token", input: "NA", wantValid: false},
		{name: "decimal", input: "1.5", wantValid: false},
		{name: "text", input: "abc", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toInt8(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("toInt8(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if got.Valid && got.Int64 != tt.wantValue {
				t.Errorf("toInt8(%q) = %d, want %d", tt.input, got.Int64, tt.wantValue)
			}
		})
	}
}

func TestToFloat8(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue float64
	}{
		{name: "decimal", input: "123.45", wantValid: true, wantValue: 123.45},
		{name: "leading decimal point", input: ".5", wantValid: true, wantValue: 0.5},
		{name: "exponent", input: "1e3", wantValid: true, wantValue: 1000},
		{name: "infinity", input: "inf", wantValid: true, wantValue: math.Inf(1)},
		{name: "overflow", input: "1e400", wantValid: true, wantValue: math.Inf(1)},
		{name: "uppercase NaN is null", input: "NAN", wantValid: false},
		{name: "null token", input: "nan", wantValid: false},
		{name: "hex float", input: "0x1p4", wantValid: false},
		{name: "underscore", input: "1_000", wantValid: false},
		{name: "text", input: "ten", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toFloat8(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("toFloat8(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if got.Valid && got.Float64 != tt.wantValue {
				t.Errorf("toFloat8(%q) = %v, want %v", tt.input, got.Float64, tt.wantValue)
			}
		})
	}
}

func TestToText(t *testing.T) {
	if got := toText("NA"); got.Valid {
		t.Errorf("toText(NA) = %+v, want null", got)
	}
	if got := toText(" NA "); !got.Valid || got.String != " NA " {
		t.Errorf("toText(\" NA \") = %+v, want whitespace kept", got)
	}
}
