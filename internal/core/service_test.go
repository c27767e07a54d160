package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/oddbit-ops/sheetsearch/internal/config"
)

// fakeIndexer records what Upload hands it and returns a canned result,
// so the saga can be exercised without a database.
type fakeIndexer struct {
	summary *FileSummary
	err     error

	gotDoc        *ParsedFile
	gotBlobPath   string
	gotUploadedBy string
}

func (f *fakeIndexer) Index(_ context.Context, doc *ParsedFile, blobPath, uploadedBy string) (*FileSummary, error) {
	f.gotDoc = doc
	f.gotBlobPath = blobPath
	f.gotUploadedBy = uploadedBy
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

// newTestService wires a Service with a temp-dir blob store and a fake
// indexer. The pool is nil; upload-path tests never touch it.
func newTestService(t *testing.T, idx *fakeIndexer) *Service {
	t.Helper()

	blobs, err := NewBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBlobStore: %v", err)
	}
	return &Service{
		blobs:   blobs,
		indexer: idx,
		cfg: &config.Config{
			Upload: config.UploadConfig{
				MaxFileSize: 1 << 20,
				MaxSheets:   50,
				MaxCells:    100000,
				BatchSize:   500,
			},
			Search: config.SearchConfig{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
		},
	}
}

// ============================================================================
// Upload Tests
// ============================================================================

func TestUploadHappyPath(t *testing.T) {
	idx := &fakeIndexer{summary: &FileSummary{
		ID:               uuid.New(),
		OriginalFilename: "inventory.xlsx",
		SheetCount:       1,
		RowCount:         1,
		CellCount:        2,
		Status:           StatusActive,
	}}
	svc := newTestService(t, idx)

	data := buildWorkbook(t, map[string][][]any{
		"Servers": {
			{"Name", "IP"},
			{"srv1", "10.0.0.1"},
		},
	})

	summary, err := svc.Upload(context.Background(), data, "inventory.xlsx", xlsxContentType, "alice")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if summary.ID != idx.summary.ID {
		t.Errorf("summary ID = %v, want %v", summary.ID, idx.summary.ID)
	}

	if idx.gotUploadedBy != "alice" {
		t.Errorf("uploadedBy = %q, want alice", idx.gotUploadedBy)
	}
	if idx.gotDoc == nil || idx.gotDoc.CellCount() != 2 {
		t.Errorf("indexer saw doc %+v, want 2 cells", idx.gotDoc)
	}
	if !svc.blobs.Exists(idx.gotBlobPath) {
		t.Error("blob should survive a successful upload")
	}
}

func TestUploadRejectsEmpty(t *testing.T) {
	svc := newTestService(t, &fakeIndexer{})

	_, err := svc.Upload(context.Background(), nil, "a.xlsx", xlsxContentType, "alice")

	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Code != "FILE005" {
		t.Fatalf("err = %v, want FILE005 ValidationError", err)
	}
}

func TestUploadRejectsOversized(t *testing.T) {
	idx := &fakeIndexer{}
	svc := newTestService(t, idx)
	svc.cfg.Upload.MaxFileSize = 10

	_, err := svc.Upload(context.Background(), make([]byte, 11), "a.xlsx", xlsxContentType, "alice")

	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Code != "FILE001" {
		t.Fatalf("err = %v, want FILE001 ValidationError", err)
	}
	if idx.gotDoc != nil {
		t.Error("indexer must not run on a rejected upload")
	}
}

func TestUploadRejectsWrongType(t *testing.T) {
	svc := newTestService(t, &fakeIndexer{})

	_, err := svc.Upload(context.Background(), []byte("hello"), "notes.txt", "text/plain", "alice")

	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Code != "FILE003" {
		t.Fatalf("err = %v, want FILE003 ValidationError", err)
	}
}

func TestUploadCompensatesBlobOnIndexFailure(t *testing.T) {
	indexErr := errors.New("index file: insert sheet: connection reset")
	idx := &fakeIndexer{err: indexErr}
	svc := newTestService(t, idx)

	data := buildWorkbook(t, map[string][][]any{
		"Servers": {
			{"Name"},
			{"srv1"},
		},
	})

	_, err := svc.Upload(context.Background(), data, "inventory.xlsx", xlsxContentType, "alice")
	if !errors.Is(err, indexErr) {
		t.Fatalf("err = %v, want the index error", err)
	}

	if idx.gotBlobPath == "" {
		t.Fatal("indexer never received a blob path")
	}
	if svc.blobs.Exists(idx.gotBlobPath) {
		t.Error("blob should be deleted after index failure")
	}
}

// ============================================================================
// Content Type Detection Tests
// ============================================================================

func TestIsSpreadsheetUpload(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		fileName    string
		want        bool
	}{
		{"declared xlsx type", xlsxContentType, "whatever.bin", true},
		{"type with charset suffix", xlsxContentType + "; charset=utf-8", "x.bin", true},
		{"xlsx extension only", "application/octet-stream", "report.xlsx", true},
		{"uppercase extension", "", "REPORT.XLSX", true},
		{"neither", "text/csv", "data.csv", false},
		{"xls is not xlsx", "application/vnd.ms-excel", "old.xls", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isSpreadsheetUpload(tt.contentType, tt.fileName)
			if got != tt.want {
				t.Errorf("isSpreadsheetUpload(%q, %q) = %v, want %v",
					tt.contentType, tt.fileName, got, tt.want)
			}
		})
	}
}

// ============================================================================
// Pagination Tests
// ============================================================================

func TestClampPage(t *testing.T) {
	svc := newTestService(t, &fakeIndexer{})

	tests := []struct {
		name         string
		page, size   int
		wantPage     int
		wantPageSize int
	}{
		{"defaults applied", 0, 0, 1, 20},
		{"negative page", -3, 10, 1, 10},
		{"oversized page size capped", 2, 500, 2, 100},
		{"in range untouched", 3, 50, 3, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size := svc.clampPage(tt.page, tt.size)
			if page != tt.wantPage || size != tt.wantPageSize {
				t.Errorf("clampPage(%d, %d) = (%d, %d), want (%d, %d)",
					tt.page, tt.size, page, size, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{0, 20, 1},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 20, 5},
	}

	for _, tt := range tests {
		if got := pageCount(tt.total, tt.pageSize); got != tt.want {
			t.Errorf("pageCount(%d, %d) = %d, want %d", tt.total, tt.pageSize, got, tt.want)
		}
	}
}
