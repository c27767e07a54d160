package core

import (
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// ============================================================================
// formatNumber Tests
// ============================================================================

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  string
	}{
		{name: "whole number has no decimal point", input: 42, want: "42"},
		{name: "zero", input: 0, want: "0"},
		{name: "negative whole", input: -7, want: "-7"},
		{name: "large whole stays plain", input: 1000000000, want: "1000000000"},
		{name: "fraction keeps digits", input: 3.14, want: "3.14"},
		{name: "trailing zeros trimmed", input: 2.5000, want: "2.5"},
		{name: "negative fraction", input: -0.125, want: "-0.125"},
		{name: "ten fractional digits max", input: 1.0 / 3.0, want: "0.3333333333"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatNumber(tt.input); got != tt.want {
				t.Errorf("formatNumber(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ============================================================================
// normalizeBool Tests
// ============================================================================

func TestNormalizeBool(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "raw one is true", input: "1", want: "true"},
		{name: "raw zero is false", input: "0", want: "false"},
		{name: "literal TRUE", input: "TRUE", want: "true"},
		{name: "literal false", input: "false", want: "false"},
		{name: "whitespace tolerated", input: " 1 ", want: "true"},
		{name: "garbage degrades to empty", input: "maybe", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeBool(tt.input); got != tt.want {
				t.Errorf("normalizeBool(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ============================================================================
// CleanCell Tests
// ============================================================================

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "surrounding whitespace trimmed", input: "  srv1  ", want: "srv1"},
		{name: "tabs and newlines trimmed", input: "\t10.0.0.1\n", want: "10.0.0.1"},
		{name: "interior spaces preserved", input: " a b ", want: "a b"},
		{name: "all whitespace becomes empty", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ============================================================================
// normalizeNumeric Tests
// ============================================================================

func TestNormalizeNumeric(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		dateStyle bool
		want      string
	}{
		{name: "plain integer", raw: "123", want: "123"},
		{name: "plain fraction", raw: "0.500", want: "0.5"},
		{name: "non-numeric falls back to trim", raw: " abc ", want: "abc"},
		// Serial 44197 is 2021-01-01; .5 adds twelve hours.
		{name: "date serial at midnight", raw: "44197", dateStyle: true, want: "2021-01-01"},
		{name: "date serial with time", raw: "44197.5", dateStyle: true, want: "2021-01-01 12:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeNumeric(tt.raw, tt.dateStyle); got != tt.want {
				t.Errorf("normalizeNumeric(%q, %v) = %q, want %q", tt.raw, tt.dateStyle, got, tt.want)
			}
		})
	}
}

// ============================================================================
// NormalizeCell Tests (against a real in-memory workbook)
// ============================================================================

func TestNormalizeCell(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"

	if err := f.SetCellValue(sheet, "A1", "  padded text  "); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue(sheet, "A2", 42.0); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue(sheet, "A3", 3.1400); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue(sheet, "A4", true); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue(sheet, "A5", false); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue(sheet, "A6", time.Date(2021, 7, 4, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue(sheet, "A7", time.Date(2021, 7, 4, 12, 30, 15, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellFormula(sheet, "A8", "=1+2"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellFormula(sheet, "A9", "=\"srv\"&\"1\""); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		axis string
		want string
	}{
		{name: "text is trimmed", axis: "A1", want: "padded text"},
		{name: "whole number renders without decimal", axis: "A2", want: "42"},
		{name: "fraction trims trailing zeros", axis: "A3", want: "3.14"},
		{name: "boolean true literal", axis: "A4", want: "true"},
		{name: "boolean false literal", axis: "A5", want: "false"},
		{name: "midnight date renders as calendar date", axis: "A6", want: "2021-07-04"},
		{name: "timestamp renders to second precision", axis: "A7", want: "2021-07-04 12:30:15"},
		{name: "numeric formula is evaluated", axis: "A8", want: "3"},
		{name: "text formula is evaluated", axis: "A9", want: "srv1"},
		{name: "blank cell is empty", axis: "B1", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCell(f, sheet, tt.axis); got != tt.want {
				t.Errorf("NormalizeCell(%s) = %q, want %q", tt.axis, got, tt.want)
			}
		})
	}
}

func TestNormalizeCellBadFormulaDegrades(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetCellFormula("Sheet1", "A1", "=NOSUCHFN(1)"); err != nil {
		t.Fatal(err)
	}

	if got := NormalizeCell(f, "Sheet1", "A1"); got != "" {
		t.Errorf("unevaluable formula = %q, want empty", got)
	}
}
