package rules

import (
	"context"
	"strings"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/guillermoBallester/schemadvisor/internal/core/port"
)

type foreignKeys struct{ base }

func newForeignKeys() *foreignKeys {
	return &foreignKeys{base{name: "foreign_keys", title: "Foreign Key Relationship Analysis", scope: port.ScopeTable}}
}

// Probe runs two independent steps: declared foreign keys whose column type
// differs from the referenced column, and *_id columns that look like
// references but carry no constraint.
func (r *foreignKeys) Probe(ctx context.Context, probe port.SchemaProbe, target domain.Target, _ domain.Thresholds) domain.Result {
	f := r.findings(target)
	r.typeMismatches(ctx, probe, target, f)
	r.missingConstraints(ctx, probe, target, f)
	return f.result()
}

func (r *foreignKeys) typeMismatches(ctx context.Context, probe port.SchemaProbe, target domain.Target, f *findings) {
	rows, err := probe.Query(ctx, queryForeignKeyTypes, target.Schema, target.Table)
	if err != nil {
		f.fail(err, "Failed to read foreign keys of table '%s'", target.Display())
		return
	}
	for _, row := range rows {
		colType, refType := str(row["column_type"]), str(row["foreign_type"])
		if colType == refType {
			continue
		}
		ref := domain.Target{Schema: str(row["foreign_schema"]), Table: str(row["foreign_table"])}
		f.warn("Data type mismatch in foreign key relationship: %s.%s (%s) -> %s.%s (%s)",
			target.Display(), str(row["column_name"]), colType,
			ref.Display(), str(row["foreign_column"]), refType)
	}
}

func (r *foreignKeys) missingConstraints(ctx context.Context, probe port.SchemaProbe, target domain.Target, f *findings) {
	cols, err := probe.Query(ctx, queryUnconstrainedIDColumns, target.Schema, target.Table)
	if err != nil {
		f.fail(err, "Failed to list unconstrained reference columns of table '%s'", target.Display())
		return
	}
	if len(cols) == 0 {
		return
	}

	pks, err := probe.Query(ctx, querySchemaPrimaryKeys, target.Schema)
	if err != nil {
		f.fail(err, "Failed to list primary keys in schema '%s'", target.Schema)
		return
	}
	tables := make(map[string]bool, len(pks))
	pkTypes := make(map[string]string, len(pks))
	for _, row := range pks {
		name := str(row["table_name"])
		tables[name] = true
		pkTypes[name] = str(row["pk_type"])
	}

	for _, row := range cols {
		name := str(row["column_name"])
		candidate, ok := domain.MatchFKNamingPattern(name, target.Table, tables)
		if !ok || !typesCompatible(str(row["column_type"]), pkTypes[candidate.ReferencedTable]) {
			continue
		}
		f.warn("Column '%s' in table '%s' looks like a reference to table '%s' (%s confidence) but has no foreign key constraint.",
			name, target.Display(), candidate.ReferencedTable, candidate.Confidence)
	}
}

// typesCompatible reports whether a referencing column of type a could hold
// keys of type b.
func typesCompatible(a, b string) bool {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	intTypes := map[string]bool{
		"integer": true, "bigint": true, "smallint": true, "int": true,
		"int4": true, "int8": true, "int2": true,
	}
	textTypes := map[string]bool{"text": true, "character varying": true, "varchar": true}

	if intTypes[a] && intTypes[b] {
		return true
	}
	if textTypes[a] && textTypes[b] {
		return true
	}
	return a != "" && a == b
}
