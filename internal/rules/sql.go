package rules

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/guillermoBallester/schemadvisor/internal/core/port"
	"github.com/jackc/pgx/v5"
)

// bind expands the {table} and {column} placeholders of a query template
// with quoted identifiers. It is the only place rules interpolate names
// into SQL; every other value travels as a positional parameter.
func bind(tmpl string, target domain.Target, column string) string {
	table := pgx.Identifier{target.Schema, target.Table}
	if target.Schema == "" {
		table = pgx.Identifier{target.Table}
	}
	return strings.NewReplacer(
		"{table}", table.Sanitize(),
		"{column}", pgx.Identifier{column}.Sanitize(),
	).Replace(tmpl)
}

type column struct {
	name      string
	dataType  string
	maxLength int64 // 0 when undeclared
	precision int64 // 0 when unconstrained
	scale     int64
}

// listColumns returns the target's columns whose information_schema
// data_type is one of dataTypes, or all columns when dataTypes is nil.
func listColumns(ctx context.Context, probe port.SchemaProbe, target domain.Target, dataTypes []string) ([]column, error) {
	rows, err := probe.Query(ctx, queryTableColumns, target.Schema, target.Table, dataTypes)
	if err != nil {
		return nil, err
	}
	cols := make([]column, 0, len(rows))
	for _, row := range rows {
		c := column{
			name:     str(row["column_name"]),
			dataType: str(row["data_type"]),
		}
		c.maxLength, _ = int64Of(row["character_maximum_length"])
		c.precision, _ = int64Of(row["numeric_precision"])
		c.scale, _ = int64Of(row["numeric_scale"])
		cols = append(cols, c)
	}
	return cols, nil
}

func str(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(v)
	}
}

// int64Of converts a scalar row value. ok is false for NULL or a value
// that is not a number.
func int64Of(v any) (n int64, ok bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case int16:
		return int64(x), true
	case int:
		return int64(x), true
	case uint32:
		return int64(x), true
	case float64:
		return int64(x), true
	case float32:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func float64Of(v any) (f float64, ok bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		n, ok := int64Of(v)
		return float64(n), ok
	}
}

func boolOf(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x == "on" || x == "true" || x == "t"
	default:
		return false
	}
}

// qualified returns the display name of a schema/table pair from a row.
func qualified(row map[string]any) string {
	return domain.Target{Schema: str(row["schema_name"]), Table: str(row["table_name"])}.Display()
}
