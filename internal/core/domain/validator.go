package domain

import (
	"errors"
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

var (
	ErrEmptyQuery     = errors.New("empty query")
	ErrNotReadOnly    = errors.New("only SELECT and SHOW statements may be probed")
	ErrMultiStatement = errors.New("multiple statements are not allowed")
	ErrParseFailed    = errors.New("failed to parse SQL")
)

// ReadOnlyGuard checks probe SQL with PostgreSQL's own parser before it
// reaches the database. Only a single SELECT or SHOW statement passes.
type ReadOnlyGuard struct{}

func NewReadOnlyGuard() *ReadOnlyGuard {
	return &ReadOnlyGuard{}
}

func (g *ReadOnlyGuard) Validate(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return ErrEmptyQuery
	}

	tree, err := pg_query.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	switch {
	case len(tree.Stmts) == 0:
		return ErrEmptyQuery
	case len(tree.Stmts) > 1:
		return ErrMultiStatement
	}

	stmt := tree.Stmts[0].Stmt
	if stmt == nil {
		return ErrEmptyQuery
	}

	switch n := stmt.Node.(type) {
	case *pg_query.Node_SelectStmt:
		// SELECT ... INTO creates a table.
		if n.SelectStmt.IntoClause != nil {
			return ErrNotReadOnly
		}
		return nil
	case *pg_query.Node_VariableShowStmt:
		return nil
	default:
		return ErrNotReadOnly
	}
}
