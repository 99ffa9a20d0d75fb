package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/datagrid/internal/ir"
)

// Select runs a query and returns every row keyed by column name.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Select(ctx context.Context, query string, args ...any) ([]ir.IRObject, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}

	out := []ir.IRObject{}
	for rows.Next() {
		row, err := scanRow(rows, columns)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func scanRow(rows *sql.Rows, columns []string) (ir.IRObject, error) {
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	row := make(ir.IRObject, len(columns))
	for i, col := range columns {
		v, err := columnValue(values[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		row[col] = v
	}
	return row, nil
}

// columnValue converts a driver value into an IRValue.
func columnValue(v any) (ir.IRValue, error) {
	switch val := v.(type) {
	case []byte:
		return ir.IRString(val), nil
	case time.Time:
		return ir.IRString(val.UTC().Format(time.RFC3339)), nil
	default:
		return ir.FromGo(val)
	}
}
