package rules

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// stubProbe answers queries with the first stub whose substrings all occur
// in the SQL. Unmatched queries return no rows.
type stubProbe struct {
	mu    sync.Mutex
	stubs []stub
	calls []call
}

type stub struct {
	match []string
	rows  []map[string]any
	err   error
	pages [][]map[string]any // successive answers; rows is ignored when set
	next  int
}

type call struct {
	sql  string
	args []any
}

func (p *stubProbe) on(rows []map[string]any, match ...string) *stubProbe {
	p.stubs = append(p.stubs, stub{match: match, rows: rows})
	return p
}

// onPages answers successive matching queries with successive pages, then
// with no rows.
func (p *stubProbe) onPages(pages [][]map[string]any, match ...string) *stubProbe {
	p.stubs = append(p.stubs, stub{match: match, pages: pages})
	return p
}

func (p *stubProbe) fail(err error, match ...string) *stubProbe {
	p.stubs = append(p.stubs, stub{match: match, err: err})
	return p
}

func (p *stubProbe) Query(_ context.Context, sql string, args ...any) ([]map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call{sql: sql, args: args})
	for i := range p.stubs {
		s := &p.stubs[i]
		if !containsAll(sql, s.match) {
			continue
		}
		if s.pages != nil {
			if s.next >= len(s.pages) {
				return nil, nil
			}
			s.next++
			return s.pages[s.next-1], nil
		}
		return s.rows, s.err
	}
	return nil, nil
}

func (p *stubProbe) callsMatching(sub string) []call {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []call
	for _, c := range p.calls {
		if strings.Contains(c.sql, sub) {
			out = append(out, c)
		}
	}
	return out
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// failingProbe fails every query.
type failingProbe struct{ err error }

func (p failingProbe) Query(context.Context, string, ...any) ([]map[string]any, error) {
	return nil, p.err
}

var errPermission = errors.New("ERROR: permission denied (SQLSTATE 42501)")

func col(name, dataType string) map[string]any {
	return map[string]any{"column_name": name, "data_type": dataType}
}

func row(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}
