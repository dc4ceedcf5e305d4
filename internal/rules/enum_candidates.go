package rules

import (
	"context"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/guillermoBallester/schemadvisor/internal/core/port"
)

type enumCandidates struct{ base }

func newEnumCandidates() *enumCandidates {
	return &enumCandidates{base{name: "enum_candidates", title: "Enum Candidate Analysis", scope: port.ScopeTable}}
}

// Probe flags text columns with between 1 and EnumCandidateMax distinct
// non-null values, inclusive.
func (r *enumCandidates) Probe(ctx context.Context, probe port.SchemaProbe, target domain.Target, th domain.Thresholds) domain.Result {
	f := r.findings(target)
	table := target.Display()

	cols, err := listColumns(ctx, probe, target, []string{"character varying", "text"})
	if err != nil {
		f.fail(err, "Failed to list text columns of table '%s'", table)
		return f.result()
	}

	for _, col := range cols {
		rows, err := probe.Query(ctx, bind(queryDistinctCount, target, col.name), th.EnumCandidateMax+1)
		if err != nil {
			f.fail(err, "Failed to count distinct values of column '%s' in table '%s'", col.name, table)
			continue
		}
		if len(rows) == 0 {
			continue
		}
		n, _ := int64Of(rows[0]["distinct_values"])
		if n > 0 && n <= int64(th.EnumCandidateMax) {
			f.warn("Column '%s' in table '%s' has %d distinct values and might be better represented as an enum type.", col.name, table, n)
		}
	}
	return f.result()
}
