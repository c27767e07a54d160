package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oddbit-ops/sheetsearch/internal/config"
	"github.com/oddbit-ops/sheetsearch/internal/logging"
)

// xlsxContentType is the declared MIME type of an OOXML workbook.
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Service composes the ingestion pipeline: parser → blob store → indexer,
// with a compensating blob delete when indexing fails. It also serves the
// read side (file lookup, listing, search, stats) directly from the pool.
type Service struct {
	pool    *pgxpool.Pool
	blobs   *BlobStore
	indexer Indexer
	cfg     *config.Config
}

// NewService creates a Service wired against PostgreSQL and the
// filesystem blob store from configuration.
func NewService(pool *pgxpool.Pool, cfg *config.Config) (*Service, error) {
	blobs, err := NewBlobStore(cfg.Blob.BaseDir)
	if err != nil {
		return nil, err
	}
	return &Service{
		pool:    pool,
		blobs:   blobs,
		indexer: NewIndexer(pool, cfg.Upload.BatchSize),
		cfg:     cfg,
	}, nil
}

// Upload validates, parses, stores, and indexes one spreadsheet.
//
// The three phases run strictly in order: the whole file is parsed in
// memory before any byte is written, and the blob is durable before
// indexing begins. When the index write fails, the blob just written is
// deleted again (the single compensating action of this saga) and the
// index error is returned.
func (s *Service) Upload(ctx context.Context, data []byte, fileName string, contentType, uploadedBy string) (*FileSummary, error) {
	if len(data) == 0 {
		return nil, validationf("FILE005", "empty file")
	}
	if size := int64(len(data)); size > s.cfg.Upload.MaxFileSize {
		return nil, validationf("FILE001", "file too large: %d bytes exceeds limit of %d",
			size, s.cfg.Upload.MaxFileSize)
	}
	if !isSpreadsheetUpload(contentType, fileName) {
		return nil, validationf("FILE003", "unsupported file type: content type %q, name %q",
			contentType, fileName)
	}

	doc, err := ParseWorkbook(data, fileName, int64(len(data)), ShapeLimits{
		MaxSheets: s.cfg.Upload.MaxSheets,
		MaxCells:  s.cfg.Upload.MaxCells,
	})
	if err != nil {
		return nil, err
	}

	blobPath, err := s.blobs.Store(data, fileName)
	if err != nil {
		return nil, err
	}

	summary, err := s.indexer.Index(ctx, doc, blobPath, uploadedBy)
	if err != nil {
		// Blob storage sits outside the index transaction, so undo it by hand.
		if derr := s.blobs.Delete(blobPath); derr != nil {
			logging.FromContext(ctx).Error("compensating blob delete failed",
				"path", blobPath, "error", derr)
		}
		return nil, err
	}

	logging.FromContext(ctx).Info("spreadsheet indexed",
		"file_id", summary.ID,
		"file_name", summary.OriginalFilename,
		"sheets", summary.SheetCount,
		"rows", summary.RowCount,
		"cells", summary.CellCount,
	)
	return summary, nil
}

// isSpreadsheetUpload accepts an upload when either the declared content
// type or the filename extension indicates an xlsx workbook. Only when
// both fail is the upload rejected.
func isSpreadsheetUpload(contentType, fileName string) bool {
	if strings.HasPrefix(strings.ToLower(contentType), xlsxContentType) {
		return true
	}
	return strings.EqualFold(filepath.Ext(fileName), ".xlsx")
}

// fileRecord is the internal row shape including the storage path, which
// callers never see.
type fileRecord struct {
	FileSummary
	StoragePath string
}

const selectFileSQL = `
	SELECT id, original_name, storage_path, file_size, uploaded_by, uploaded_at,
	       sheet_count, row_count, cell_count, status
	FROM spreadsheet_files WHERE id = $1`

// getFileRecord fetches a file row regardless of status.
func (s *Service) getFileRecord(ctx context.Context, id uuid.UUID) (*fileRecord, error) {
	var rec fileRecord
	var status string
	err := s.pool.QueryRow(ctx, selectFileSQL, id).Scan(
		&rec.ID, &rec.OriginalFilename, &rec.StoragePath, &rec.FileSize,
		&rec.UploadedBy, &rec.UploadedAt,
		&rec.SheetCount, &rec.RowCount, &rec.CellCount, &status,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	rec.Status = FileStatus(status)
	return &rec, nil
}

// GetFile returns a file summary with its sheet metadata.
// Deleted files are reported as not found.
func (s *Service) GetFile(ctx context.Context, id uuid.UUID) (*FileDetail, error) {
	rec, err := s.getFileRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != StatusActive {
		return nil, ErrNotFound
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, sheet_index, row_count, column_count, headers
		FROM sheets WHERE file_id = $1 ORDER BY sheet_index`, id)
	if err != nil {
		return nil, fmt.Errorf("get file sheets: %w", err)
	}
	defer rows.Close()

	detail := &FileDetail{FileSummary: rec.FileSummary, Sheets: []SheetSummary{}}
	for rows.Next() {
		var sheet SheetSummary
		if err := rows.Scan(&sheet.SheetID, &sheet.SheetName, &sheet.SheetIndex,
			&sheet.RowCount, &sheet.ColumnCount, &sheet.Headers); err != nil {
			return nil, fmt.Errorf("scan sheet: %w", err)
		}
		if sheet.Headers == nil {
			sheet.Headers = []string{}
		}
		detail.Sheets = append(detail.Sheets, sheet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sheet rows: %w", err)
	}
	return detail, nil
}

// ListFiles returns one page of active file summaries, newest first.
func (s *Service) ListFiles(ctx context.Context, page, pageSize int) (*FileList, error) {
	page, pageSize = s.clampPage(page, pageSize)

	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM spreadsheet_files WHERE status = 'active'`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}

	totalPages := pageCount(total, pageSize)
	if page > totalPages {
		page = totalPages
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, original_name, file_size, uploaded_by, uploaded_at,
		       sheet_count, row_count, cell_count, status
		FROM spreadsheet_files
		WHERE status = 'active'
		ORDER BY uploaded_at DESC, id
		LIMIT $1 OFFSET $2`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	list := &FileList{
		Files:      []FileSummary{},
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
	for rows.Next() {
		var f FileSummary
		var status string
		if err := rows.Scan(&f.ID, &f.OriginalFilename, &f.FileSize, &f.UploadedBy,
			&f.UploadedAt, &f.SheetCount, &f.RowCount, &f.CellCount, &status); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		f.Status = FileStatus(status)
		list.Files = append(list.Files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("file rows: %w", err)
	}
	return list, nil
}

// OpenBlob returns the original filename and an open reader over the
// stored bytes of an active file.
func (s *Service) OpenBlob(ctx context.Context, id uuid.UUID) (string, *os.File, error) {
	rec, err := s.getFileRecord(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if rec.Status != StatusActive {
		return "", nil, ErrNotFound
	}
	f, err := s.blobs.Open(rec.StoragePath)
	if err != nil {
		return "", nil, err
	}
	return rec.OriginalFilename, f, nil
}

// Delete soft-deletes a file after consulting the ownership gate, then
// cascades over its sheets and cells and removes the stored blob.
//
// The status flip and the blob removal are not atomic with each other: a
// crash between them orphans the blob. That gap is accepted; a missing or
// undeletable blob never blocks the status flip.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, requesterID string, requesterRoles []string) error {
	rec, err := s.getFileRecord(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status == StatusDeleted {
		return ErrAlreadyDeleted
	}
	if !CanDelete(rec.UploadedBy, requesterID, requesterRoles) {
		return ErrPermissionDenied
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("delete file: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE spreadsheet_files SET status = 'deleted' WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete file: mark deleted: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM cells WHERE sheet_id IN (SELECT id FROM sheets WHERE file_id = $1)`, id); err != nil {
		return fmt.Errorf("delete file: cascade cells: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM sheets WHERE file_id = $1`, id); err != nil {
		return fmt.Errorf("delete file: cascade sheets: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("delete file: commit: %w", err)
	}

	// Best effort only: the caller's delete already succeeded.
	if err := s.blobs.Delete(rec.StoragePath); err != nil {
		logging.FromContext(ctx).Warn("blob delete failed after soft delete",
			"file_id", id, "path", rec.StoragePath, "error", err)
	}

	logging.FromContext(ctx).Info("spreadsheet deleted",
		"file_id", id, "requested_by", requesterID)
	return nil
}

// Ping verifies database connectivity.
func (s *Service) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// GetStats computes live aggregate counts over the index.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM spreadsheet_files),
			(SELECT COUNT(*) FROM spreadsheet_files WHERE status = 'active'),
			(SELECT COUNT(*) FROM sheets s
				JOIN spreadsheet_files f ON f.id = s.file_id WHERE f.status = 'active'),
			(SELECT COUNT(*) FROM cells c
				JOIN sheets s ON s.id = c.sheet_id
				JOIN spreadsheet_files f ON f.id = s.file_id WHERE f.status = 'active'),
			(SELECT COALESCE(SUM(file_size), 0) FROM spreadsheet_files WHERE status = 'active')`,
	).Scan(&stats.TotalFiles, &stats.ActiveFiles, &stats.TotalSheets,
		&stats.TotalCells, &stats.TotalStorageBytes)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &stats, nil
}

// clampPage normalizes page and pageSize against configured bounds.
func (s *Service) clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.cfg.Search.DefaultPageSize
	}
	if pageSize > s.cfg.Search.MaxPageSize {
		pageSize = s.cfg.Search.MaxPageSize
	}
	return page, pageSize
}

// pageCount returns the number of pages needed for total rows, never
// less than one.
func pageCount(total int64, pageSize int) int {
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if pages < 1 {
		pages = 1
	}
	return pages
}
