package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MaxSearchKeywords is the fixed contract limit on keyword slots.
// Callers needing more terms narrow the scope with filters instead.
const MaxSearchKeywords = 5

// Search finds cells whose lower-cased value contains every supplied
// keyword, optionally scoped to one file and/or one sheet name, and
// reconstructs the full row for each match.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	keywords := make([]string, 0, len(req.Keywords))
	for _, kw := range req.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, strings.ToLower(kw))
		}
	}
	if len(keywords) < 1 || len(keywords) > MaxSearchKeywords {
		return nil, validationf("SRCH001",
			"searches take between 1 and 5 keywords, got %d", len(keywords))
	}

	page, pageSize := s.clampPage(req.Page, req.PageSize)

	where := []string{"f.status = 'active'"}
	args := []any{}
	for _, kw := range keywords {
		args = append(args, "%"+escapeLike(kw)+"%")
		where = append(where, fmt.Sprintf("c.cell_value_lower LIKE $%d", len(args)))
	}
	if req.FileID != nil {
		args = append(args, *req.FileID)
		where = append(where, fmt.Sprintf("f.id = $%d", len(args)))
	}
	if req.SheetName != "" {
		args = append(args, strings.ToLower(req.SheetName))
		where = append(where, fmt.Sprintf("LOWER(s.name) = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	const fromClause = `
		FROM cells c
		JOIN sheets s ON s.id = c.sheet_id
		JOIN spreadsheet_files f ON f.id = s.file_id`

	var total int64
	countSQL := "SELECT COUNT(*)" + fromClause + " WHERE " + whereClause
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("search count: %w", err)
	}

	totalPages := pageCount(total, pageSize)
	if page > totalPages {
		page = totalPages
	}

	result := &SearchResult{
		Results:    []SearchMatch{},
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
	if total == 0 {
		return result, nil
	}

	// No relevance ranking: ordering follows upload, sheet, row, column
	// so pages are reproducible.
	selectSQL := fmt.Sprintf(`
		SELECT c.id, f.id, f.original_name, s.id, s.name,
		       c.column_header, c.row_number, c.column_index, c.cell_value
		%s
		WHERE %s
		ORDER BY f.uploaded_at, f.id, s.sheet_index, c.row_number, c.column_index
		LIMIT $%d OFFSET $%d`,
		fromClause, whereClause, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.pool.Query(ctx, selectSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m SearchMatch
		if err := rows.Scan(&m.CellID, &m.FileID, &m.FileName, &m.SheetID, &m.SheetName,
			&m.ColumnHeader, &m.RowNumber, &m.ColumnIndex, &m.CellValue); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		result.Results = append(result.Results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search rows: %w", err)
	}

	// Second lookup per match, trading query cost for returning the full
	// row without another round trip from the caller.
	for i := range result.Results {
		m := &result.Results[i]
		rowData, err := s.reconstructRow(ctx, m.SheetID, m.RowNumber, m.CellID)
		if err != nil {
			return nil, err
		}
		m.RowData = rowData
	}

	return result, nil
}

// reconstructRow fetches every persisted cell sharing the matched cell's
// (sheet, row number), ordered by column index, flagging the match.
func (s *Service) reconstructRow(ctx context.Context, sheetID uuid.UUID, rowNumber int, matchedCellID uuid.UUID) ([]RowCell, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, column_header, column_index, cell_value
		FROM cells
		WHERE sheet_id = $1 AND row_number = $2
		ORDER BY column_index`, sheetID, rowNumber)
	if err != nil {
		return nil, fmt.Errorf("reconstruct row: %w", err)
	}
	defer rows.Close()

	var cells []RowCell
	for rows.Next() {
		var cellID uuid.UUID
		var cell RowCell
		if err := rows.Scan(&cellID, &cell.ColumnHeader, &cell.ColumnIndex, &cell.CellValue); err != nil {
			return nil, fmt.Errorf("scan row cell: %w", err)
		}
		cell.IsMatchedCell = cellID == matchedCellID
		cells = append(cells, cell)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row cells: %w", err)
	}
	return cells, nil
}

// escapeLike escapes LIKE metacharacters so keywords match literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
