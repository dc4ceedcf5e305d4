package rules

import (
	"context"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/guillermoBallester/schemadvisor/internal/core/port"
)

type temporalTypes struct{ base }

func newTemporalTypes() *temporalTypes {
	return &temporalTypes{base{name: "temporal_types", title: "Temporal Data Type Analysis", scope: port.ScopeTable}}
}

func (r *temporalTypes) Probe(ctx context.Context, probe port.SchemaProbe, target domain.Target, _ domain.Thresholds) domain.Result {
	f := r.findings(target)

	cols, err := listColumns(ctx, probe, target, []string{"timestamp without time zone", "time without time zone"})
	if err != nil {
		f.fail(err, "Failed to list temporal columns of table '%s'", target.Display())
		return f.result()
	}
	for _, col := range cols {
		f.warn("Column '%s' in table '%s' uses '%s'. Consider if 'with time zone' might be more appropriate for time zone awareness.",
			col.name, target.Display(), col.dataType)
	}
	return f.result()
}
