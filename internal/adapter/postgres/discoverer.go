package postgres

import (
	"context"
	"fmt"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/guillermoBallester/schemadvisor/internal/core/port"
)

// Discoverer lists the base tables of the configured schemas. It reads the
// catalog through the probe so discovery is guarded and audited like every
// other query.
type Discoverer struct {
	probe   port.SchemaProbe
	schemas []string
}

func NewDiscoverer(probe port.SchemaProbe, schemas []string) *Discoverer {
	return &Discoverer{probe: probe, schemas: schemas}
}

func (d *Discoverer) ListTables(ctx context.Context) ([]domain.Target, error) {
	clause, args := schemaFilter(d.schemas, "n.nspname", 1)
	rows, err := d.probe.Query(ctx, fmt.Sprintf(queryListTables, clause), args...)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	targets := make([]domain.Target, 0, len(rows))
	for _, row := range rows {
		schema, _ := row["table_schema"].(string)
		table, _ := row["table_name"].(string)
		if table == "" {
			return nil, fmt.Errorf("listing tables: row without table_name")
		}
		targets = append(targets, domain.Target{Schema: schema, Table: table})
	}
	return targets, nil
}
