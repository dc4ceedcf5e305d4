package policy

import (
	"context"
	"strings"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/guillermoBallester/schemadvisor/internal/core/port"
)

// PolicyDiscoverer decorates a TableDiscoverer, dropping the tables the
// policy excludes. Discovery order is preserved.
type PolicyDiscoverer struct {
	inner   port.TableDiscoverer
	exclude map[string]bool
}

// NewPolicyDiscoverer wraps inner. A nil policy excludes nothing.
func NewPolicyDiscoverer(inner port.TableDiscoverer, pol *Policy) *PolicyDiscoverer {
	exclude := make(map[string]bool)
	if pol != nil {
		for _, name := range pol.Tables.Exclude {
			if t, ok := excludedTable(name); ok {
				exclude[t.String()] = true
			}
		}
	}
	return &PolicyDiscoverer{inner: inner, exclude: exclude}
}

func (p *PolicyDiscoverer) ListTables(ctx context.Context) ([]domain.Target, error) {
	tables, err := p.inner.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	if len(p.exclude) == 0 {
		return tables, nil
	}
	out := tables[:0:0]
	for _, t := range tables {
		if p.exclude[t.String()] {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// excludedTable parses a tables.exclude entry. A bare name is a public
// table; otherwise the schema ends at the first dot, so table names may
// themselves contain dots.
func excludedTable(name string) (domain.Target, bool) {
	schema, table, qualified := strings.Cut(name, ".")
	if !qualified {
		schema, table = "public", name
	}
	if schema == "" || table == "" {
		return domain.Target{}, false
	}
	return domain.Target{Schema: schema, Table: table}, true
}
