package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadOnlyGuard(t *testing.T) {
	t.Parallel()
	guard := NewReadOnlyGuard()

	tests := []struct {
		name    string
		sql     string
		wantErr error
	}{
		{"select", "SELECT 1", nil},
		{"select with quoted identifiers", `SELECT count(DISTINCT "select") FROM "public"."my ""table"""`, nil},
		{"cte select", "WITH x AS (SELECT 1) SELECT * FROM x", nil},
		{"show", "SHOW ssl", nil},
		{"empty", "   ", ErrEmptyQuery},
		{"insert", "INSERT INTO t VALUES (1)", ErrNotReadOnly},
		{"update", "UPDATE t SET a = 1", ErrNotReadOnly},
		{"drop", "DROP TABLE t", ErrNotReadOnly},
		{"set", "SET statement_timeout = 0", ErrNotReadOnly},
		{"select into", "SELECT * INTO copy FROM t", ErrNotReadOnly},
		{"multiple statements", "SELECT 1; SELECT 2", ErrMultiStatement},
		{"garbage", "SELEC 1 FROM", ErrParseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := guard.Validate(tt.sql)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
