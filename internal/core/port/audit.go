package port

import "context"

// AuditEntry represents a single probe query issued by a rule.
type AuditEntry struct {
	Rule         string
	Target       string
	SQL          string
	RowsReturned int
	DurationMS   int64
	Err          error
}

// ProbeAuditor records probe audit events.
type ProbeAuditor interface {
	Record(ctx context.Context, entry AuditEntry)
	Close() error
}
