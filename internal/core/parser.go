package core

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ShapeLimits bounds what a single workbook may contain. Limits are
// enforced only after the full document tree has been built, so a
// violation rejects the whole upload with nothing partially parsed.
type ShapeLimits struct {
	MaxSheets int
	MaxCells  int
}

// ParseWorkbook opens raw xlsx bytes and builds the document tree.
//
// Row 0 of each sheet is the header row; blank header cells are
// synthesized as "Column_N". Data rows are retained only when at least
// one cell normalizes to a non-empty value.
func ParseWorkbook(data []byte, originalName string, fileSize int64, limits ShapeLimits) (*ParsedFile, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, validationf("FILE002", "open workbook: %v", err)
	}
	defer f.Close()

	doc := &ParsedFile{
		OriginalName: originalName,
		FileSize:     fileSize,
	}

	for idx, name := range f.GetSheetList() {
		sheet, err := parseSheet(f, name, idx)
		if err != nil {
			return nil, err
		}
		doc.Sheets = append(doc.Sheets, sheet)
	}

	// Shape limits are checked after the whole tree exists; a partially
	// valid document is never returned.
	if doc.SheetCount() > limits.MaxSheets {
		return nil, validationf("FILE006", "too many sheets: %d exceeds limit of %d",
			doc.SheetCount(), limits.MaxSheets)
	}
	if doc.CellCount() > limits.MaxCells {
		return nil, validationf("FILE007", "too many cells: %d exceeds limit of %d",
			doc.CellCount(), limits.MaxCells)
	}

	return doc, nil
}

// parseSheet reads one worksheet into a ParsedSheet.
func parseSheet(f *excelize.File, name string, idx int) (ParsedSheet, error) {
	sheet := ParsedSheet{
		Name:    name,
		Index:   idx,
		Headers: []string{},
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return sheet, fmt.Errorf("read sheet %q: %w", name, err)
	}
	if len(rows) == 0 {
		return sheet, nil
	}

	// The grid width is the widest row, so data cells beyond the header
	// row's extent still get a synthesized header.
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	sheet.Headers = make([]string, width)
	for c := 0; c < width; c++ {
		axis, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return sheet, fmt.Errorf("sheet %q header column %d: %w", name, c, err)
		}
		header := NormalizeCell(f, name, axis)
		if header == "" {
			header = fmt.Sprintf("Column_%d", c+1)
		}
		sheet.Headers[c] = header
	}

	for r := 1; r < len(rows); r++ {
		row := ParsedRow{Number: r}
		for c := 0; c < width; c++ {
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return sheet, fmt.Errorf("sheet %q cell (%d,%d): %w", name, r, c, err)
			}
			value := NormalizeCell(f, name, axis)
			if value == "" {
				continue
			}
			row.Cells = append(row.Cells, ParsedCell{
				ColumnIndex: c,
				Header:      sheet.Headers[c],
				Value:       value,
			})
		}
		// Rows with no non-empty cells are dropped entirely.
		if len(row.Cells) > 0 {
			sheet.Rows = append(sheet.Rows, row)
		}
	}

	return sheet, nil
}
