package domain

// Target identifies the table a table-scoped rule evaluates.
// The zero value is the database-wide target.
type Target struct {
	Schema string
	Table  string
}

// IsDatabase reports whether t is the database-wide target.
func (t Target) IsDatabase() bool {
	return t.Table == ""
}

// Display returns the name used in finding texts. Tables in the public
// schema are shown unqualified.
func (t Target) Display() string {
	if t.Schema == "" || t.Schema == "public" {
		return t.Table
	}
	return t.Schema + "." + t.Table
}

func (t Target) String() string {
	if t.IsDatabase() {
		return "database"
	}
	return t.Schema + "." + t.Table
}
