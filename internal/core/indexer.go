package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Indexer persists a parsed document tree as one unit of work: the file
// row, its sheets, and every retained cell commit together or not at all.
type Indexer interface {
	Index(ctx context.Context, doc *ParsedFile, blobPath, uploadedBy string) (*FileSummary, error)
}

// pgIndexer writes the index into PostgreSQL. Cell inserts are flushed in
// fixed-size batches to bound memory and transaction-log growth; batching
// is a resource-control detail only and never exposes a partially indexed
// file, since everything runs inside a single transaction.
type pgIndexer struct {
	pool      *pgxpool.Pool
	batchSize int
}

// NewIndexer creates a PostgreSQL-backed indexer flushing cell writes
// every batchSize records.
func NewIndexer(pool *pgxpool.Pool, batchSize int) Indexer {
	return &pgIndexer{pool: pool, batchSize: batchSize}
}

const insertCellSQL = `
	INSERT INTO cells (id, sheet_id, row_number, column_index, column_header, cell_value, cell_value_lower)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (ix *pgIndexer) Index(ctx context.Context, doc *ParsedFile, blobPath, uploadedBy string) (*FileSummary, error) {
	tx, err := ix.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("index file: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	fileID := uuid.New()
	uploadedAt := time.Now().UTC()

	// Counters come straight from the parsed tree and are write-once.
	_, err = tx.Exec(ctx, `
		INSERT INTO spreadsheet_files
			(id, original_name, storage_path, file_size, uploaded_by, uploaded_at,
			 sheet_count, row_count, cell_count, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		fileID, doc.OriginalName, blobPath, doc.FileSize, uploadedBy, uploadedAt,
		doc.SheetCount(), doc.RowCount(), doc.CellCount(), string(StatusActive),
	)
	if err != nil {
		return nil, fmt.Errorf("index file: insert file: %w", err)
	}

	for _, sheet := range doc.Sheets {
		sheetID := uuid.New()
		_, err = tx.Exec(ctx, `
			INSERT INTO sheets (id, file_id, name, sheet_index, row_count, column_count, headers)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			sheetID, fileID, sheet.Name, sheet.Index, len(sheet.Rows), len(sheet.Headers), sheet.Headers,
		)
		if err != nil {
			return nil, fmt.Errorf("index file: insert sheet %q: %w", sheet.Name, err)
		}

		batch := &pgx.Batch{}
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				// The lower-cased copy is recomputed on every write so it
				// can never drift from the display value.
				batch.Queue(insertCellSQL,
					uuid.New(), sheetID, row.Number, cell.ColumnIndex,
					cell.Header, cell.Value, strings.ToLower(cell.Value),
				)
				if batch.Len() >= ix.batchSize {
					if err := flushBatch(ctx, tx, batch); err != nil {
						return nil, fmt.Errorf("index file: insert cells: %w", err)
					}
					batch = &pgx.Batch{}
				}
			}
		}
		if err := flushBatch(ctx, tx, batch); err != nil {
			return nil, fmt.Errorf("index file: insert cells: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("index file: commit: %w", err)
	}

	return &FileSummary{
		ID:               fileID,
		OriginalFilename: doc.OriginalName,
		FileSize:         doc.FileSize,
		UploadedBy:       uploadedBy,
		UploadedAt:       uploadedAt,
		SheetCount:       doc.SheetCount(),
		RowCount:         doc.RowCount(),
		CellCount:        doc.CellCount(),
		Status:           StatusActive,
	}, nil
}

// flushBatch sends queued cell inserts and drains their results.
func flushBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	return br.Close()
}
