package domain

import (
	"fmt"
	"strings"
)

// FKCandidate is a foreign key relationship suggested by column naming.
// Type compatibility is checked by the caller because type names are
// database-specific.
type FKCandidate struct {
	ColumnName      string
	ReferencedTable string
	Confidence      string // "high" or "medium"
	Reason          string
}

// MatchFKNamingPattern checks whether columnName follows the *_id
// convention and names a table in tableNames (plural, singular, or -es
// plural). A column never matches its own table.
func MatchFKNamingPattern(columnName, ownTable string, tableNames map[string]bool) (FKCandidate, bool) {
	lower := strings.ToLower(columnName)
	if !strings.HasSuffix(lower, "_id") || lower == "_id" {
		return FKCandidate{}, false
	}
	prefix := strings.TrimSuffix(lower, "_id")

	for _, candidate := range []string{prefix + "s", prefix, prefix + "es"} {
		if !tableNames[candidate] || candidate == ownTable {
			continue
		}
		confidence := "high"
		if candidate == prefix+"es" {
			confidence = "medium"
		}
		return FKCandidate{
			ColumnName:      columnName,
			ReferencedTable: candidate,
			Confidence:      confidence,
			Reason:          fmt.Sprintf("column %q matches naming pattern for table %q", columnName, candidate),
		}, true
	}
	return FKCandidate{}, false
}
