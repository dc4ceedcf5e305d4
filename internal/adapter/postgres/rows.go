package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

// rowsToMaps collects pgx.Rows into maps keyed by column name. A result
// without rows yields an empty, non-nil slice.
func rowsToMaps(rows pgx.Rows) ([]map[string]any, error) {
	result, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collecting rows: %w", err)
	}
	if result == nil {
		result = []map[string]any{}
	}
	return result, nil
}
