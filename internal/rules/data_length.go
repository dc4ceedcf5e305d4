package rules

import (
	"context"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/guillermoBallester/schemadvisor/internal/core/port"
)

type dataLength struct{ base }

func newDataLength() *dataLength {
	return &dataLength{base{name: "data_length", title: "Text and Binary Data Length Analysis", scope: port.ScopeTable}}
}

func (r *dataLength) Probe(ctx context.Context, probe port.SchemaProbe, target domain.Target, th domain.Thresholds) domain.Result {
	f := r.findings(target)
	table := target.Display()

	cols, err := listColumns(ctx, probe, target, []string{"character varying", "character", "text", "bytea"})
	if err != nil {
		f.fail(err, "Failed to list text and binary columns of table '%s'", table)
		return f.result()
	}

	for _, col := range cols {
		rows, err := probe.Query(ctx, bind(queryMaxLength, target, col.name))
		if err != nil {
			f.fail(err, "Failed to measure data length of column '%s' in table '%s'", col.name, table)
			continue
		}
		var observed int64
		var hasData bool
		if len(rows) > 0 {
			observed, hasData = int64Of(rows[0]["max_length"])
		}

		if col.maxLength == 0 {
			if hasData {
				f.warn("Column '%s' in table '%s' of type '%s' has no declared maximum length; the longest stored value is %d. Consider specifying a maximum length.",
					col.name, table, col.dataType, observed)
			} else {
				f.warn("Column '%s' in table '%s' of type '%s' has no declared maximum length. Consider specifying a maximum length.",
					col.name, table, col.dataType)
			}
			continue
		}
		if !hasData || observed == 0 {
			continue
		}
		if float64(col.maxLength) >= th.DataLengthRatio*float64(observed) {
			f.warn("Column '%s' in table '%s' of type '%s' with defined length %d could potentially be reduced to %d.",
				col.name, table, col.dataType, col.maxLength, observed)
		}
	}
	return f.result()
}
