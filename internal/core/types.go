package core

import (
	"time"

	"github.com/google/uuid"
)

// FileStatus is the lifecycle state of an uploaded file.
type FileStatus string

const (
	StatusActive  FileStatus = "active"
	StatusDeleted FileStatus = "deleted"
)

// FileSummary is the caller-facing view of an uploaded spreadsheet.
// Counters are write-once at creation time and never recomputed.
type FileSummary struct {
	ID               uuid.UUID  `json:"id"`
	OriginalFilename string     `json:"originalFilename"`
	FileSize         int64      `json:"fileSize"`
	UploadedBy       string     `json:"uploadedBy"`
	UploadedAt       time.Time  `json:"uploadedAt"`
	SheetCount       int        `json:"sheetCount"`
	RowCount         int        `json:"rowCount"`
	CellCount        int        `json:"cellCount"`
	Status           FileStatus `json:"status"`
}

// SheetSummary is the caller-facing view of one sheet.
type SheetSummary struct {
	SheetID     uuid.UUID `json:"sheetId"`
	SheetName   string    `json:"sheetName"`
	SheetIndex  int       `json:"sheetIndex"`
	RowCount    int       `json:"rowCount"`
	ColumnCount int       `json:"columnCount"`
	Headers     []string  `json:"headers"`
}

// FileDetail is a file summary plus its sheet metadata.
type FileDetail struct {
	FileSummary
	Sheets []SheetSummary `json:"sheets"`
}

// FileList is one page of file summaries.
type FileList struct {
	Files      []FileSummary `json:"files"`
	TotalCount int64         `json:"totalCount"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// SearchRequest describes one cell search. Keywords are ANDed; a cell
// matches only when its lower-cased value contains every keyword.
type SearchRequest struct {
	Keywords  []string
	FileID    *uuid.UUID
	SheetName string
	Page      int
	PageSize  int
}

// RowCell is one cell within a reconstructed row.
type RowCell struct {
	ColumnHeader  string `json:"columnHeader"`
	ColumnIndex   int    `json:"columnIndex"`
	CellValue     string `json:"cellValue"`
	IsMatchedCell bool   `json:"isMatchedCell"`
}

// SearchMatch is one matched cell with its full row context.
type SearchMatch struct {
	CellID       uuid.UUID `json:"cellId"`
	FileID       uuid.UUID `json:"fileId"`
	FileName     string    `json:"fileName"`
	SheetID      uuid.UUID `json:"sheetId"`
	SheetName    string    `json:"sheetName"`
	ColumnHeader string    `json:"columnHeader"`
	RowNumber    int       `json:"rowNumber"`
	ColumnIndex  int       `json:"columnIndex"`
	CellValue    string    `json:"cellValue"`
	RowData      []RowCell `json:"rowData"`
}

// SearchResult is one page of matches with total-count reporting.
type SearchResult struct {
	Results    []SearchMatch `json:"results"`
	TotalCount int64         `json:"totalCount"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// Stats are live aggregate counts over the index; nothing is cached.
type Stats struct {
	TotalFiles        int64 `json:"totalFiles"`
	ActiveFiles       int64 `json:"activeFiles"`
	TotalSheets       int64 `json:"totalSheets"`
	TotalCells        int64 `json:"totalCells"`
	TotalStorageBytes int64 `json:"totalStorageBytes"`
}
