package port

import (
	"context"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
)

// SchemaProbe runs a single read-only query against the target database and
// returns its rows as column-name keyed maps.
type SchemaProbe interface {
	Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error)
}

// TableDiscoverer lists the base tables a session evaluates, in a stable order.
type TableDiscoverer interface {
	ListTables(ctx context.Context) ([]domain.Target, error)
}
