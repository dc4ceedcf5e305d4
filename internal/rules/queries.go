package rules

// Table-scoped templates use {table} and {column} placeholders expanded by bind.

// queryTableColumns: $1 schema, $2 table, $3 data_type filter (NULL = all).
const queryTableColumns = `
	SELECT
		c.column_name::text AS column_name,
		c.data_type::text AS data_type,
		c.character_maximum_length::bigint AS character_maximum_length,
		c.numeric_precision::bigint AS numeric_precision,
		c.numeric_scale::bigint AS numeric_scale
	FROM information_schema.columns c
	WHERE c.table_schema = $1
		AND c.table_name = $2
		AND ($3::text[] IS NULL OR c.data_type = ANY($3::text[]))
	ORDER BY c.ordinal_position`

// queryDistinctValues pages through the distinct non-null values of a
// column in text order: $1 page size, $2 last value of the previous page
// (NULL for the first page).
const queryDistinctValues = `
	SELECT DISTINCT {column}::text AS value
	FROM {table}
	WHERE {column} IS NOT NULL
		AND ($2::text IS NULL OR {column}::text > $2::text)
	ORDER BY 1
	LIMIT $1`

const queryMaxLength = `
	SELECT max(length({column}))::bigint AS max_length
	FROM {table}`

// queryDistinctCount stops counting at $1 distinct values.
const queryDistinctCount = `
	SELECT count(*)::bigint AS distinct_values
	FROM (
		SELECT DISTINCT {column}
		FROM {table}
		WHERE {column} IS NOT NULL
		LIMIT $1
	) AS d`

// queryNumericUsage returns the widest integer part and the largest
// significant scale among stored values.
const queryNumericUsage = `
	SELECT
		max(CASE WHEN trunc(abs({column})) = 0 THEN 0
			ELSE length(trunc(abs({column}))::text) END)::bigint AS max_int_digits,
		max(scale(trim_scale({column})))::bigint AS max_scale
	FROM {table}
	WHERE {column} IS NOT NULL`

const queryColumnUsage = `
	SELECT
		count(*)::bigint AS total_rows,
		count({column})::bigint AS non_null_rows,
		count(DISTINCT {column}::text)::bigint AS unique_values
	FROM {table}`

// queryForeignKeyTypes: $1 schema, $2 table.
const queryForeignKeyTypes = `
	SELECT
		a.attname::text AS column_name,
		format_type(a.atttypid, NULL) AS column_type,
		rn.nspname::text AS foreign_schema,
		rc.relname::text AS foreign_table,
		ra.attname::text AS foreign_column,
		format_type(ra.atttypid, NULL) AS foreign_type
	FROM pg_constraint c
	JOIN pg_class cl ON cl.oid = c.conrelid
	JOIN pg_namespace n ON n.oid = cl.relnamespace
	CROSS JOIN LATERAL unnest(c.conkey, c.confkey) AS k(attnum, fattnum)
	JOIN pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = k.attnum
	JOIN pg_attribute ra ON ra.attrelid = c.confrelid AND ra.attnum = k.fattnum
	JOIN pg_class rc ON rc.oid = c.confrelid
	JOIN pg_namespace rn ON rn.oid = rc.relnamespace
	WHERE c.contype = 'f'
		AND n.nspname = $1
		AND cl.relname = $2
	ORDER BY c.conname, a.attnum`

// queryUnconstrainedIDColumns: $1 schema, $2 table. *_id columns not
// covered by any foreign key.
const queryUnconstrainedIDColumns = `
	SELECT
		a.attname::text AS column_name,
		format_type(a.atttypid, NULL) AS column_type
	FROM pg_attribute a
	JOIN pg_class cl ON cl.oid = a.attrelid
	JOIN pg_namespace n ON n.oid = cl.relnamespace
	WHERE n.nspname = $1
		AND cl.relname = $2
		AND a.attnum > 0
		AND NOT a.attisdropped
		AND a.attname LIKE '%\_id'
		AND NOT EXISTS (
			SELECT 1 FROM pg_constraint c
			WHERE c.conrelid = cl.oid AND c.contype = 'f' AND a.attnum = ANY(c.conkey)
		)
	ORDER BY a.attnum`

// querySchemaPrimaryKeys: $1 schema. Tables with a single-column primary key.
const querySchemaPrimaryKeys = `
	SELECT
		t.relname::text AS table_name,
		format_type(a.atttypid, NULL) AS pk_type
	FROM pg_class t
	JOIN pg_namespace n ON n.oid = t.relnamespace
	JOIN pg_index i ON i.indrelid = t.oid AND i.indisprimary AND i.indnatts = 1
	JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = i.indkey[0]
	WHERE n.nspname = $1
		AND t.relkind IN ('r', 'p')
	ORDER BY t.relname`

// Database-scoped queries.

// queryUnusedIndexes: $1 scan threshold. Primary and unique indexes enforce
// constraints and are never reported.
const queryUnusedIndexes = `
	SELECT
		s.schemaname::text AS schema_name,
		s.relname::text AS table_name,
		s.indexrelname::text AS index_name,
		s.idx_scan::bigint AS index_scans
	FROM pg_stat_user_indexes s
	JOIN pg_index i ON i.indexrelid = s.indexrelid
	WHERE s.idx_scan < $1
		AND NOT i.indisprimary
		AND NOT i.indisunique
	ORDER BY s.schemaname, s.relname, s.indexrelname`

const queryDuplicateIndexes = `
	SELECT
		n.nspname::text AS schema_name,
		t.relname::text AS table_name,
		string_agg(ic.relname::text, ', ' ORDER BY ic.relname) AS index_names
	FROM pg_index i
	JOIN pg_class t ON t.oid = i.indrelid
	JOIN pg_class ic ON ic.oid = i.indexrelid
	JOIN pg_namespace n ON n.oid = t.relnamespace
	WHERE n.nspname NOT IN ('pg_catalog', 'information_schema')
		AND n.nspname NOT LIKE 'pg\_toast%'
	GROUP BY n.nspname, t.relname, i.indrelid, i.indkey::text, i.indclass::text,
		COALESCE(pg_get_expr(i.indexprs, i.indrelid), ''),
		COALESCE(pg_get_expr(i.indpred, i.indrelid), '')
	HAVING count(*) > 1
	ORDER BY 1, 2`

const queryGINCandidates = `
	SELECT
		c.table_schema::text AS schema_name,
		c.table_name::text AS table_name,
		c.column_name::text AS column_name
	FROM information_schema.columns c
	JOIN information_schema.tables t
		ON t.table_schema = c.table_schema AND t.table_name = c.table_name
	WHERE t.table_type = 'BASE TABLE'
		AND c.table_schema NOT IN ('pg_catalog', 'information_schema')
		AND (c.data_type IN ('ARRAY', 'tsvector', 'jsonb') OR c.column_name LIKE '%\_text')
	ORDER BY 1, 2, c.ordinal_position`

// queryBRINCandidates: $1 minimum estimated rows. Naturally ordered columns
// of large tables that carry no index at all.
const queryBRINCandidates = `
	SELECT
		n.nspname::text AS schema_name,
		c.relname::text AS table_name,
		a.attname::text AS column_name
	FROM pg_class c
	JOIN pg_namespace n ON n.oid = c.relnamespace
	JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum > 0 AND NOT a.attisdropped
	WHERE c.relkind = 'r'
		AND n.nspname NOT IN ('pg_catalog', 'information_schema')
		AND n.nspname NOT LIKE 'pg\_toast%'
		AND c.reltuples::bigint >= $1
		AND NOT EXISTS (SELECT 1 FROM pg_index i WHERE i.indrelid = c.oid)
		AND format_type(a.atttypid, NULL) IN (
			'timestamp without time zone', 'timestamp with time zone', 'date', 'integer', 'bigint'
		)
	ORDER BY 1, 2, a.attnum`

const queryGiSTCandidates = `
	SELECT
		c.table_schema::text AS schema_name,
		c.table_name::text AS table_name,
		c.column_name::text AS column_name
	FROM information_schema.columns c
	WHERE c.table_schema NOT IN ('pg_catalog', 'information_schema')
		AND c.data_type IN ('point', 'polygon', 'circle', 'box', 'line', 'lseg', 'path')
	ORDER BY 1, 2, c.ordinal_position`

// queryUnindexedForeignKeys reports each foreign key whose columns are not
// the leading key columns, in any order, of some non-partial index.
const queryUnindexedForeignKeys = `
	SELECT
		n.nspname::text AS schema_name,
		cl.relname::text AS table_name,
		c.conname::text AS constraint_name,
		(
			SELECT string_agg(a.attname::text, ', ' ORDER BY k.ord)
			FROM unnest(c.conkey) WITH ORDINALITY AS k(attnum, ord)
			JOIN pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = k.attnum
		) AS column_names
	FROM pg_constraint c
	JOIN pg_class cl ON cl.oid = c.conrelid
	JOIN pg_namespace n ON n.oid = cl.relnamespace
	WHERE c.contype = 'f'
		AND NOT EXISTS (
			SELECT 1
			FROM pg_index i
			CROSS JOIN LATERAL (
				SELECT (string_to_array(i.indkey::text, ' ')::int2[])[1:cardinality(c.conkey)] AS cols
			) lead
			WHERE i.indrelid = c.conrelid
				AND i.indpred IS NULL
				AND i.indnkeyatts >= cardinality(c.conkey)
				AND lead.cols @> c.conkey
				AND lead.cols <@ c.conkey
		)
	ORDER BY 1, 2, 3`

const querySuperusers = `
	SELECT rolname::text AS username
	FROM pg_roles
	WHERE rolsuper
	ORDER BY rolname`

// queryLoginRolesNamed: $1 candidate usernames.
const queryLoginRolesNamed = `
	SELECT rolname::text AS username
	FROM pg_roles
	WHERE rolcanlogin
		AND rolname = ANY($1::text[])
	ORDER BY rolname`

const queryRoles = `
	SELECT
		rolname::text AS role_name,
		rolsuper,
		rolcreaterole,
		rolcreatedb,
		rolcanlogin
	FROM pg_roles
	WHERE rolname NOT LIKE 'pg\_%'
	ORDER BY rolname`

// queryRoleDatabases: $1 role name.
const queryRoleDatabases = `
	SELECT datname::text AS database_name
	FROM pg_database
	WHERE NOT datistemplate
		AND has_database_privilege($1::name, datname::text, 'CONNECT')
	ORDER BY datname`

// queryRolePrivileges: $1 role name. Explicit grants on relations.
const queryRolePrivileges = `
	SELECT
		n.nspname::text AS schema_name,
		c.relname::text AS table_name,
		string_agg(DISTINCT acl.privilege_type, ', ' ORDER BY acl.privilege_type) AS privileges
	FROM pg_class c
	JOIN pg_namespace n ON n.oid = c.relnamespace
	CROSS JOIN LATERAL aclexplode(c.relacl) AS acl
	JOIN pg_roles r ON r.oid = acl.grantee
	WHERE r.rolname = $1
		AND c.relkind IN ('r', 'v', 'm', 'p')
		AND n.nspname NOT IN ('pg_catalog', 'information_schema')
	GROUP BY n.nspname, c.relname
	ORDER BY 1, 2`

const queryPreloadLibraries = `SHOW shared_preload_libraries`

const queryPasswordEncryption = `SHOW password_encryption`

// querySettings: $1 setting names.
const querySettings = `
	SELECT name::text AS name, setting::text AS setting
	FROM pg_settings
	WHERE name = ANY($1::text[])`

// querySensitiveColumns: $1 ILIKE patterns.
const querySensitiveColumns = `
	SELECT
		c.table_schema::text AS schema_name,
		c.table_name::text AS table_name,
		c.column_name::text AS column_name
	FROM information_schema.columns c
	JOIN information_schema.tables t
		ON t.table_schema = c.table_schema AND t.table_name = c.table_name
	WHERE t.table_type = 'BASE TABLE'
		AND c.table_schema NOT IN ('pg_catalog', 'information_schema')
		AND c.column_name ILIKE ANY($1::text[])
	ORDER BY 1, 2, c.ordinal_position`

const querySSL = `SHOW ssl`

const queryPgcrypto = `
	SELECT extname::text AS extname
	FROM pg_extension
	WHERE extname = 'pgcrypto'`
