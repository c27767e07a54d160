package core

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellKind is the closed set of source cell types the normalizer handles.
// Each kind has exactly one normalization path.
type CellKind int

const (
	KindBlank CellKind = iota
	KindText
	KindNumber
	KindDate
	KindBool
	KindFormula
	KindError
	KindUnknown
)

// builtinDateFormats are the builtin xlsx number format IDs that render a
// serial number as a date or time.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true,
	20: true, 21: true, 22: true, 27: true, 28: true, 29: true,
	30: true, 31: true, 32: true, 33: true, 34: true, 35: true,
	36: true, 45: true, 46: true, 47: true, 50: true, 51: true,
	52: true, 53: true, 54: true, 55: true, 56: true, 57: true,
	58: true,
}

// NormalizeCell converts one worksheet cell into its canonical display
// string. A cell that cannot be normalized degrades to the empty string;
// normalization never fails the surrounding parse.
func NormalizeCell(f *excelize.File, sheet, axis string) (value string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("cell normalization recovered", "sheet", sheet, "cell", axis, "panic", r)
			value = ""
		}
	}()

	kind := cellKind(f, sheet, axis)

	switch kind {
	case KindBlank, KindUnknown:
		return ""

	case KindError:
		return "ERROR"

	case KindBool:
		raw, err := f.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
		if err != nil {
			return ""
		}
		return normalizeBool(raw)

	case KindFormula:
		return normalizeFormula(f, sheet, axis)

	case KindDate, KindNumber:
		raw, err := f.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
		if err != nil {
			return ""
		}
		return normalizeNumeric(raw, kind == KindDate)

	default: // KindText
		raw, err := f.GetCellValue(sheet, axis)
		if err != nil {
			return ""
		}
		return CleanCell(raw)
	}
}

// cellKind resolves the declared kind of a cell once, so the dispatch above
// stays free of scattered type inspection.
func cellKind(f *excelize.File, sheet, axis string) CellKind {
	// Formulas take precedence: numeric-result formulas carry no type
	// attribute and would otherwise be mistaken for plain numbers.
	if formula, err := f.GetCellFormula(sheet, axis); err == nil && formula != "" {
		return KindFormula
	}

	ct, err := f.GetCellType(sheet, axis)
	if err != nil {
		return KindUnknown
	}

	switch ct {
	case excelize.CellTypeBool:
		return KindBool
	case excelize.CellTypeError:
		return KindError
	case excelize.CellTypeInlineString, excelize.CellTypeSharedString, excelize.CellTypeFormula:
		return KindText
	case excelize.CellTypeDate:
		return KindDate
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		raw, err := f.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
		if err != nil {
			return KindUnknown
		}
		if raw == "" {
			return KindBlank
		}
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return KindText
		}
		if hasDateStyle(f, sheet, axis) {
			return KindDate
		}
		return KindNumber
	default:
		return KindUnknown
	}
}

// hasDateStyle reports whether the cell's number format renders dates.
func hasDateStyle(f *excelize.File, sheet, axis string) bool {
	styleID, err := f.GetCellStyle(sheet, axis)
	if err != nil {
		return false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if builtinDateFormats[style.NumFmt] {
		return true
	}
	if style.CustomNumFmt != nil {
		return strings.ContainsAny(strings.ToLower(*style.CustomNumFmt), "ymdh")
	}
	return false
}

// normalizeFormula evaluates a formula cell and normalizes the result by
// its resulting kind. Evaluation failure degrades to empty.
func normalizeFormula(f *excelize.File, sheet, axis string) string {
	result, err := f.CalcCellValue(sheet, axis)
	if err != nil {
		slog.Debug("formula evaluation failed", "sheet", sheet, "cell", axis, "error", err)
		return ""
	}
	result = strings.TrimSpace(result)
	if result == "" {
		return ""
	}
	if strings.EqualFold(result, "TRUE") || strings.EqualFold(result, "FALSE") {
		return strings.ToLower(result)
	}
	if _, err := strconv.ParseFloat(result, 64); err == nil {
		return normalizeNumeric(result, hasDateStyle(f, sheet, axis))
	}
	return result
}

// normalizeNumeric renders a raw numeric value either as a calendar date
// (when the cell carries a date format) or as a plain number.
func normalizeNumeric(raw string, dateStyle bool) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return CleanCell(raw)
	}
	if dateStyle {
		return formatSerialDate(v)
	}
	return formatNumber(v)
}

// formatSerialDate converts an Excel serial number to a date string.
// Midnight times format as a bare date, anything else as date plus time
// to second precision.
func formatSerialDate(serial float64) string {
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return formatNumber(serial)
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// formatNumber renders a float the way users typed it: whole values as
// integer literals, fractional values with up to 10 fractional digits and
// trailing zeros trimmed.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', 10, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}

// normalizeBool maps a raw xlsx boolean ("1"/"0") to its literal form.
func normalizeBool(raw string) string {
	switch strings.TrimSpace(raw) {
	case "1":
		return "true"
	case "0":
		return "false"
	}
	if strings.EqualFold(raw, "TRUE") {
		return "true"
	}
	if strings.EqualFold(raw, "FALSE") {
		return "false"
	}
	return ""
}

// CleanCell trims surrounding whitespace from a cell value.
func CleanCell(s string) string {
	return strings.TrimSpace(s)
}
