package db

import (
	"context"
	"database/sql"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
)

// Select runs query and returns every row keyed by column name. Driver byte
// slices are returned as strings so numeric columns can be parsed exactly.
func Select(ctx context.Context, queryer Queryer, query string, args ...interface{}) ([]boundary.Row, error) {
	rows, err := queryer.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return ScanRows(rows)
}

// ScanRows drains rows into maps.
func ScanRows(rows *sql.Rows) ([]boundary.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []boundary.Row
	for rows.Next() {
		// Create a slice of interface{}'s to represent each column,
		// and a second slice to contain pointers to each item in the columns slice.
		columns := make([]interface{}, len(cols))
		columnPointers := make([]interface{}, len(cols))
		for i := range columns {
			columnPointers[i] = &columns[i]
		}

		if err := rows.Scan(columnPointers...); err != nil {
			return nil, err
		}

		m := make(boundary.Row, len(cols))
		for i, colName := range cols {
			val := *columnPointers[i].(*interface{})
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			m[colName] = val
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
