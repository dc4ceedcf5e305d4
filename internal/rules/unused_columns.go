package rules

import (
	"context"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/guillermoBallester/schemadvisor/internal/core/port"
)

type unusedColumns struct{ base }

func newUnusedColumns() *unusedColumns {
	return &unusedColumns{base{name: "unused_columns", title: "Unused or Rarely Used Columns Analysis", scope: port.ScopeTable}}
}

func (r *unusedColumns) Probe(ctx context.Context, probe port.SchemaProbe, target domain.Target, th domain.Thresholds) domain.Result {
	f := r.findings(target)
	table := target.Display()

	cols, err := listColumns(ctx, probe, target, nil)
	if err != nil {
		f.fail(err, "Failed to list columns of table '%s'", table)
		return f.result()
	}

	for _, col := range cols {
		rows, err := probe.Query(ctx, bind(queryColumnUsage, target, col.name))
		if err != nil {
			f.fail(err, "Failed to measure usage of column '%s' in table '%s'", col.name, table)
			continue
		}
		if len(rows) == 0 {
			continue
		}
		total, _ := int64Of(rows[0]["total_rows"])
		if total == 0 {
			continue
		}
		nonNull, _ := int64Of(rows[0]["non_null_rows"])
		unique, _ := int64Of(rows[0]["unique_values"])

		pct := float64(nonNull) / float64(total) * 100
		if pct < th.UnusedColumnPercent {
			f.warn("Column '%s' in table '%s' is rarely used or mostly null (%.2f%% non-null values).", col.name, table, pct)
		}
		if unique == 1 && total > 1 {
			f.warn("Column '%s' in table '%s' might be overusing a default value (only 1 unique value across non-null entries).", col.name, table)
		}
	}
	return f.result()
}
