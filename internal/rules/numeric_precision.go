package rules

import (
	"context"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/guillermoBallester/schemadvisor/internal/core/port"
)

type numericPrecision struct{ base }

func newNumericPrecision() *numericPrecision {
	return &numericPrecision{base{name: "numeric_precision", title: "Numeric Precision and Scale Analysis", scope: port.ScopeTable}}
}

func (r *numericPrecision) Probe(ctx context.Context, probe port.SchemaProbe, target domain.Target, _ domain.Thresholds) domain.Result {
	f := r.findings(target)
	table := target.Display()

	cols, err := listColumns(ctx, probe, target, []string{"numeric"})
	if err != nil {
		f.fail(err, "Failed to list numeric columns of table '%s'", table)
		return f.result()
	}

	for _, col := range cols {
		// Unconstrained numeric has nothing to reduce.
		if col.precision == 0 {
			continue
		}
		rows, err := probe.Query(ctx, bind(queryNumericUsage, target, col.name))
		if err != nil {
			f.fail(err, "Failed to measure numeric usage of column '%s' in table '%s'", col.name, table)
			continue
		}
		if len(rows) == 0 {
			continue
		}
		intDigits, ok := int64Of(rows[0]["max_int_digits"])
		if !ok {
			continue
		}
		maxScale, _ := int64Of(rows[0]["max_scale"])

		needed := max(intDigits+maxScale, 1)
		if col.precision > needed {
			f.warn("Column '%s' in table '%s' has defined numeric precision of %d which could potentially be reduced to %d.",
				col.name, table, col.precision, needed)
		}
		if col.scale > maxScale {
			f.warn("Column '%s' in table '%s' has defined numeric scale of %d which could potentially be reduced to %d.",
				col.name, table, col.scale, maxScale)
		}
	}
	return f.result()
}
