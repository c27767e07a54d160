package core

import (
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

// testLimits are generous defaults for parser tests that are not about
// shape enforcement.
var testLimits = ShapeLimits{MaxSheets: 50, MaxCells: 100000}

// buildWorkbook creates an xlsx file in memory from per-sheet cell grids.
// Row 0 of each grid is the header row.
func buildWorkbook(t *testing.T, sheets map[string][][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, grid := range sheets {
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatal(err)
			}
			first = false
		} else {
			if _, err := f.NewSheet(name); err != nil {
				t.Fatal(err)
			}
		}
		for r, row := range grid {
			for c, v := range row {
				if v == nil {
					continue
				}
				axis, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					t.Fatal(err)
				}
				if err := f.SetCellValue(name, axis, v); err != nil {
					t.Fatal(err)
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// ============================================================================
// ParseWorkbook Tests
// ============================================================================

func TestParseWorkbookBasic(t *testing.T) {
	data := buildWorkbook(t, map[string][][]any{
		"Servers": {
			{"Name", "IP"},
			{"srv1", "10.0.0.1"},
		},
	})

	doc, err := ParseWorkbook(data, "inventory.xlsx", int64(len(data)), testLimits)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}

	if doc.SheetCount() != 1 {
		t.Fatalf("sheet count = %d, want 1", doc.SheetCount())
	}
	sheet := doc.Sheets[0]
	if sheet.Name != "Servers" {
		t.Errorf("sheet name = %q, want Servers", sheet.Name)
	}
	if len(sheet.Headers) != 2 || sheet.Headers[0] != "Name" || sheet.Headers[1] != "IP" {
		t.Errorf("headers = %v, want [Name IP]", sheet.Headers)
	}
	if len(sheet.Rows) != 1 {
		t.Fatalf("retained rows = %d, want 1", len(sheet.Rows))
	}
	row := sheet.Rows[0]
	if row.Number != 1 {
		t.Errorf("row number = %d, want 1", row.Number)
	}
	if len(row.Cells) != 2 {
		t.Fatalf("cells = %d, want 2", len(row.Cells))
	}
	if row.Cells[0].Value != "srv1" || row.Cells[0].Header != "Name" || row.Cells[0].ColumnIndex != 0 {
		t.Errorf("cell 0 = %+v", row.Cells[0])
	}
	if row.Cells[1].Value != "10.0.0.1" || row.Cells[1].Header != "IP" {
		t.Errorf("cell 1 = %+v", row.Cells[1])
	}
}

func TestParseWorkbookBlankHeaderSynthesized(t *testing.T) {
	data := buildWorkbook(t, map[string][][]any{
		"Data": {
			{"Name", nil, "Zone"},
			{"a", "b", "c"},
		},
	})

	doc, err := ParseWorkbook(data, "x.xlsx", int64(len(data)), testLimits)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}

	headers := doc.Sheets[0].Headers
	want := []string{"Name", "Column_2", "Zone"}
	if len(headers) != len(want) {
		t.Fatalf("headers = %v, want %v", headers, want)
	}
	for i := range want {
		if headers[i] != want[i] {
			t.Errorf("headers[%d] = %q, want %q", i, headers[i], want[i])
		}
	}
}

func TestParseWorkbookDropsEmptyRows(t *testing.T) {
	data := buildWorkbook(t, map[string][][]any{
		"Data": {
			{"Name"},
			{"a"},
			{"   "}, // whitespace only, normalizes to empty
			{"b"},
		},
	})

	doc, err := ParseWorkbook(data, "x.xlsx", int64(len(data)), testLimits)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}

	rows := doc.Sheets[0].Rows
	if len(rows) != 2 {
		t.Fatalf("retained rows = %d, want 2", len(rows))
	}
	// Dropped rows keep source numbering for the survivors.
	if rows[0].Number != 1 || rows[1].Number != 3 {
		t.Errorf("row numbers = %d, %d, want 1, 3", rows[0].Number, rows[1].Number)
	}
}

func TestParseWorkbookCounters(t *testing.T) {
	data := buildWorkbook(t, map[string][][]any{
		"One": {
			{"A", "B"},
			{"x", "y"},
			{"z", nil},
		},
		"Two": {
			{"C"},
			{"w"},
		},
	})

	doc, err := ParseWorkbook(data, "x.xlsx", int64(len(data)), testLimits)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}

	if doc.SheetCount() != 2 {
		t.Errorf("sheets = %d, want 2", doc.SheetCount())
	}
	if doc.RowCount() != 3 {
		t.Errorf("rows = %d, want 3", doc.RowCount())
	}
	if doc.CellCount() != 4 {
		t.Errorf("cells = %d, want 4", doc.CellCount())
	}
}

func TestParseWorkbookRejectsGarbage(t *testing.T) {
	_, err := ParseWorkbook([]byte("not a zip archive"), "x.xlsx", 17, testLimits)

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if ve.Code != "FILE002" {
		t.Errorf("code = %q, want FILE002", ve.Code)
	}
}

// ============================================================================
// Shape Limit Tests
// ============================================================================

func TestParseWorkbookSheetLimit(t *testing.T) {
	data := buildWorkbook(t, map[string][][]any{
		"One": {{"A"}, {"x"}},
		"Two": {{"B"}, {"y"}},
	})

	_, err := ParseWorkbook(data, "x.xlsx", int64(len(data)), ShapeLimits{MaxSheets: 1, MaxCells: 100})

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if ve.Code != "FILE006" {
		t.Errorf("code = %q, want FILE006", ve.Code)
	}
}

func TestParseWorkbookCellLimit(t *testing.T) {
	data := buildWorkbook(t, map[string][][]any{
		"One": {
			{"A", "B"},
			{"1", "2"},
			{"3", "4"},
		},
	})

	_, err := ParseWorkbook(data, "x.xlsx", int64(len(data)), ShapeLimits{MaxSheets: 50, MaxCells: 3})

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if ve.Code != "FILE007" {
		t.Errorf("code = %q, want FILE007", ve.Code)
	}
}
