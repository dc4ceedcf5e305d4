package postgres

// queryListTables has one %s placeholder for the schema filter clause.
// Only ordinary and partitioned base tables are advisory targets; partitions
// are reported through their parent.
const queryListTables = `
	SELECT
		n.nspname::text AS table_schema,
		c.relname::text AS table_name
	FROM pg_class c
	JOIN pg_namespace n ON n.oid = c.relnamespace
	WHERE c.relkind IN ('r', 'p')
		AND NOT c.relispartition
		AND %s
	ORDER BY n.nspname, c.relname`
