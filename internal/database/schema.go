package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema defines the relational index: one row per uploaded file, per sheet,
// and per non-blank cell. Blank cells are never stored.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS spreadsheet_files (
		id            UUID PRIMARY KEY,
		original_name TEXT NOT NULL,
		storage_path  TEXT NOT NULL,
		file_size     BIGINT NOT NULL,
		uploaded_by   TEXT NOT NULL,
		uploaded_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		sheet_count   INT NOT NULL,
		row_count     INT NOT NULL,
		cell_count    INT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'active'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_spreadsheet_files_status
		ON spreadsheet_files (status)`,
	`CREATE TABLE IF NOT EXISTS sheets (
		id           UUID PRIMARY KEY,
		file_id      UUID NOT NULL REFERENCES spreadsheet_files(id) ON DELETE CASCADE,
		name         TEXT NOT NULL,
		sheet_index  INT NOT NULL,
		row_count    INT NOT NULL,
		column_count INT NOT NULL,
		headers      TEXT[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sheets_file_id
		ON sheets (file_id, sheet_index)`,
	`CREATE TABLE IF NOT EXISTS cells (
		id               UUID PRIMARY KEY,
		sheet_id         UUID NOT NULL REFERENCES sheets(id) ON DELETE CASCADE,
		row_number       INT NOT NULL,
		column_index     INT NOT NULL,
		column_header    TEXT NOT NULL,
		cell_value       TEXT NOT NULL,
		cell_value_lower TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cells_sheet_row
		ON cells (sheet_id, row_number, column_index)`,
}

// EnsureSchema creates the index tables if they do not exist.
// Statements are idempotent so repeated startups are safe.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
