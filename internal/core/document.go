package core

// ParsedFile is the in-memory document tree produced by the parser,
// before anything is persisted. The tree is strictly file → sheets →
// rows → cells with no cross-links.
type ParsedFile struct {
	OriginalName string
	FileSize     int64
	Sheets       []ParsedSheet
}

// ParsedSheet is one worksheet of the parsed workbook.
type ParsedSheet struct {
	Name string
	// Index is the zero-based position of the sheet within the workbook.
	Index int
	// Headers holds one name per column; blank header cells are
	// synthesized as "Column_N" (1-based).
	Headers []string
	Rows    []ParsedRow
}

// ParsedRow is a retained data row. Rows whose cells all normalize to
// the empty string are dropped during parsing and never appear here.
type ParsedRow struct {
	// Number is the one-based row number; the header row is row 0 and
	// is not represented as a ParsedRow.
	Number int
	Cells  []ParsedCell
}

// ParsedCell is one non-blank cell of a retained row.
type ParsedCell struct {
	// ColumnIndex is zero-based.
	ColumnIndex int
	// Header is the resolved column header for this cell.
	Header string
	// Value is the normalized display string; always non-empty after
	// trimming, or the cell would not have been retained.
	Value string
}

// SheetCount returns the number of parsed sheets.
func (f *ParsedFile) SheetCount() int {
	return len(f.Sheets)
}

// RowCount returns the total number of retained rows across all sheets.
func (f *ParsedFile) RowCount() int {
	total := 0
	for _, s := range f.Sheets {
		total += len(s.Rows)
	}
	return total
}

// CellCount returns the total number of retained non-blank cells.
func (f *ParsedFile) CellCount() int {
	total := 0
	for _, s := range f.Sheets {
		for _, r := range s.Rows {
			total += len(r.Cells)
		}
	}
	return total
}
