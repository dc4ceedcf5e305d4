package port

import (
	"context"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
)

// Scope says how often a rule runs per session.
type Scope int

const (
	// ScopeDatabase rules run once per session.
	ScopeDatabase Scope = iota
	// ScopeTable rules run once per discovered table.
	ScopeTable
)

func (s Scope) String() string {
	if s == ScopeTable {
		return "table"
	}
	return "database"
}

// Rule is one advisory check. Probe never returns an error: every failure is
// reported as an Error message inside the returned Result, whose Title is
// always Title().
type Rule interface {
	Name() string
	Title() string
	Scope() Scope
	Probe(ctx context.Context, probe SchemaProbe, target domain.Target, th domain.Thresholds) domain.Result
}
