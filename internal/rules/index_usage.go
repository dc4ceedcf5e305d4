package rules

import (
	"context"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/guillermoBallester/schemadvisor/internal/core/port"
)

type indexUsage struct{ base }

func newIndexUsage() *indexUsage {
	return &indexUsage{base{name: "index_usage", title: "Index Usage and Types Analysis", scope: port.ScopeDatabase}}
}

// indexStep is one independent check of the index rule. A failing step is
// reported on its own and never hides the others' findings.
type indexStep struct {
	what  string
	query string
	args  func(th domain.Thresholds) []any
	emit  func(f *findings, row map[string]any)
}

var indexSteps = []indexStep{
	{
		what:  "unused indexes",
		query: queryUnusedIndexes,
		args:  func(th domain.Thresholds) []any { return []any{th.UnusedIndexScans} },
		emit: func(f *findings, row map[string]any) {
			scans, _ := int64Of(row["index_scans"])
			f.warn("Index '%s' on table '%s' has very low usage (%d scans). Consider if it's necessary.",
				str(row["index_name"]), qualified(row), scans)
		},
	},
	{
		what:  "duplicate indexes",
		query: queryDuplicateIndexes,
		emit: func(f *findings, row map[string]any) {
			f.warn("Duplicate indexes found on table '%s': %s. Consider removing redundant indexes.",
				qualified(row), str(row["index_names"]))
		},
	},
	{
		what:  "GIN index candidates",
		query: queryGINCandidates,
		emit: func(f *findings, row map[string]any) {
			f.warn("Column '%s' on table '%s' might benefit from a GIN index for improved search performance.",
				str(row["column_name"]), qualified(row))
		},
	},
	{
		what:  "BRIN index candidates",
		query: queryBRINCandidates,
		args:  func(th domain.Thresholds) []any { return []any{th.BRINMinRows} },
		emit: func(f *findings, row map[string]any) {
			f.warn("Column '%s' on table '%s' might benefit from a BRIN index for faster queries on large, naturally ordered datasets.",
				str(row["column_name"]), qualified(row))
		},
	},
	{
		what:  "GiST index candidates",
		query: queryGiSTCandidates,
		emit: func(f *findings, row map[string]any) {
			f.warn("Column '%s' on table '%s' might benefit from a GiST index for efficient geometric operations.",
				str(row["column_name"]), qualified(row))
		},
	},
	{
		what:  "unindexed foreign keys",
		query: queryUnindexedForeignKeys,
		emit: func(f *findings, row map[string]any) {
			f.warn("Foreign key '%s' on table '%s' is not indexed: no index starts with its columns '%s'. Consider adding one to improve performance.",
				str(row["constraint_name"]), qualified(row), str(row["column_names"]))
		},
	},
}

func (r *indexUsage) Probe(ctx context.Context, probe port.SchemaProbe, target domain.Target, th domain.Thresholds) domain.Result {
	f := r.findings(target)
	for _, step := range indexSteps {
		var args []any
		if step.args != nil {
			args = step.args(th)
		}
		rows, err := probe.Query(ctx, step.query, args...)
		if err != nil {
			f.fail(err, "Failed to check %s", step.what)
			continue
		}
		for _, row := range rows {
			step.emit(f, row)
		}
	}
	return f.result()
}
