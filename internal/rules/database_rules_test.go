package rules

import (
	"context"
	"testing"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var database = domain.Target{}

func TestIndexUsage_AllSteps(t *testing.T) {
	probe := (&stubProbe{}).
		on([]map[string]any{row("schema_name", "public", "table_name", "orders", "index_name", "orders_note_idx", "index_scans", int64(3))}, "pg_stat_user_indexes").
		on([]map[string]any{row("schema_name", "sales", "table_name", "items", "index_names", "items_a_idx, items_b_idx")}, "HAVING count(*) > 1").
		on([]map[string]any{row("schema_name", "public", "table_name", "docs", "column_name", "tags")}, "tsvector").
		on([]map[string]any{row("schema_name", "public", "table_name", "events", "column_name", "created_at")}, "reltuples").
		on([]map[string]any{row("schema_name", "public", "table_name", "shops", "column_name", "location")}, "'polygon'").
		on([]map[string]any{
			row("schema_name", "public", "table_name", "orders", "constraint_name", "orders_customer_id_fkey", "column_names", "customer_id"),
			row("schema_name", "public", "table_name", "returns", "constraint_name", "returns_wh_fkey", "column_names", "region, code"),
		}, "c.contype = 'f'")

	th := domain.DefaultThresholds()
	res := newIndexUsage().Probe(context.Background(), probe, database, th)

	warnings := texts(res, domain.SeverityWarning)
	require.Len(t, warnings, 7)
	assert.Contains(t, warnings[0], "Index 'orders_note_idx' on table 'orders' has very low usage (3 scans)")
	assert.Contains(t, warnings[1], "sales.items")
	assert.Contains(t, warnings[2], "GIN")
	assert.Contains(t, warnings[3], "BRIN")
	assert.Contains(t, warnings[4], "GiST")
	assert.Contains(t, warnings[5], "'customer_id'")
	assert.Contains(t, warnings[6], "Foreign key 'returns_wh_fkey' on table 'returns'")
	assert.Contains(t, warnings[6], "'region, code'")

	unused := probe.callsMatching("pg_stat_user_indexes")
	require.Len(t, unused, 1)
	assert.Equal(t, []any{th.UnusedIndexScans}, unused[0].args)
	brin := probe.callsMatching("reltuples")
	require.Len(t, brin, 1)
	assert.Equal(t, []any{th.BRINMinRows}, brin[0].args)
}

func TestIndexUsage_StepFailureKeepsOtherSteps(t *testing.T) {
	probe := (&stubProbe{}).
		on([]map[string]any{row("schema_name", "public", "table_name", "orders", "index_name", "orders_note_idx", "index_scans", int64(0))}, "pg_stat_user_indexes").
		fail(errPermission, "HAVING count(*) > 1")

	res := newIndexUsage().Probe(context.Background(), probe, database, domain.DefaultThresholds())

	require.Len(t, res.Messages, 2)
	assert.Equal(t, domain.SeverityWarning, res.Messages[0].Severity)
	assert.Equal(t, domain.SeverityError, res.Messages[1].Severity)
	assert.Contains(t, res.Messages[1].Text, "duplicate indexes")
}

func TestSuperuserAccess(t *testing.T) {
	one := (&stubProbe{}).on([]map[string]any{row("username", "postgres")}, "rolsuper")
	res := newSuperuserAccess().Probe(context.Background(), one, database, domain.DefaultThresholds())
	assert.Equal(t, []string{"No issues found."}, texts(res, domain.SeverityInfo))

	two := (&stubProbe{}).on([]map[string]any{row("username", "postgres"), row("username", "ops")}, "rolsuper")
	res = newSuperuserAccess().Probe(context.Background(), two, database, domain.DefaultThresholds())
	warnings := texts(res, domain.SeverityWarning)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "postgres, ops")
}

func TestDefaultAccounts(t *testing.T) {
	probe := (&stubProbe{}).on([]map[string]any{row("username", "admin"), row("username", "postgres")}, "rolcanlogin")

	res := newDefaultAccounts(defaultUsernames).Probe(context.Background(), probe, database, domain.DefaultThresholds())

	warnings := texts(res, domain.SeverityWarning)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "admin, postgres")
}

func TestRolesPermissions_RoleFailureIsIsolated(t *testing.T) {
	probe := (&stubProbe{}).
		on([]map[string]any{
			row("role_name", "app", "rolsuper", false, "rolcanlogin", true, "rolcreaterole", false, "rolcreatedb", false),
			row("role_name", "broken", "rolsuper", false, "rolcanlogin", true, "rolcreaterole", false, "rolcreatedb", false),
		}, "FROM pg_roles", "rolcreatedb").
		on([]map[string]any{row("database_name", "shop")}, "has_database_privilege").
		on([]map[string]any{row("schema_name", "public", "table_name", "orders", "privileges", "INSERT, SELECT")}, "aclexplode")
	wrapped := &roleFailProbe{inner: probe, role: "broken"}

	res := newRolesPermissions().Probe(context.Background(), wrapped, database, domain.DefaultThresholds())

	require.Len(t, res.Messages, 2)
	assert.Equal(t, domain.SeverityInfo, res.Messages[0].Severity)
	assert.Contains(t, res.Messages[0].Text, "Role 'app'")
	assert.Contains(t, res.Messages[0].Text, "can login: true")
	assert.Contains(t, res.Messages[0].Text, "shop")
	assert.Contains(t, res.Messages[0].Text, "orders (INSERT, SELECT)")
	assert.Equal(t, domain.SeverityError, res.Messages[1].Severity)
	assert.Contains(t, res.Messages[1].Text, "'broken'")
}

// roleFailProbe fails every per-role query issued for one role.
type roleFailProbe struct {
	inner *stubProbe
	role  string
}

func (p *roleFailProbe) Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	if len(args) == 1 && args[0] == p.role {
		return nil, errPermission
	}
	return p.inner.Query(ctx, sql, args...)
}

func TestPasswordPolicy(t *testing.T) {
	probe := (&stubProbe{}).
		on([]map[string]any{row("shared_preload_libraries", "pg_stat_statements, pgaudit")}, "shared_preload_libraries").
		on([]map[string]any{row("password_encryption", "md5")}, "password_encryption")

	res := newPasswordPolicy().Probe(context.Background(), probe, database, domain.DefaultThresholds())

	warnings := texts(res, domain.SeverityWarning)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "passwordcheck")
	assert.Contains(t, warnings[1], "md5")
	infos := texts(res, domain.SeverityInfo)
	require.Len(t, infos, 1)
	assert.Contains(t, infos[0], "pgAudit")
}

func TestPasswordPolicy_ScramIsInfo(t *testing.T) {
	probe := (&stubProbe{}).
		on([]map[string]any{row("shared_preload_libraries", "passwordcheck,pgaudit")}, "shared_preload_libraries").
		on([]map[string]any{row("password_encryption", "scram-sha-256")}, "password_encryption")

	res := newPasswordPolicy().Probe(context.Background(), probe, database, domain.DefaultThresholds())

	assert.Zero(t, res.Count(domain.SeverityWarning))
	assert.Equal(t, 3, res.Count(domain.SeverityInfo))
}

func TestLoggingAuditing(t *testing.T) {
	probe := (&stubProbe{}).on([]map[string]any{
		row("name", "log_connections", "setting", "off"),
		row("name", "log_disconnections", "setting", "on"),
		row("name", "log_statement", "setting", "none"),
		row("name", "log_min_duration_statement", "setting", "-1"),
	}, "pg_settings")

	res := newLoggingAuditing().Probe(context.Background(), probe, database, domain.DefaultThresholds())

	require.Len(t, res.Messages, len(auditSettings))
	assert.Equal(t, domain.SeverityWarning, res.Messages[0].Severity)
	assert.Contains(t, res.Messages[0].Text, "log_connections")
	assert.Equal(t, "log_disconnections: on", res.Messages[1].Text)
	assert.Equal(t, domain.SeverityWarning, res.Messages[2].Severity)
	assert.Equal(t, "log_min_duration_statement: -1", res.Messages[3].Text)
	assert.Contains(t, res.Messages[4].Text, "not available")

	calls := probe.callsMatching("pg_settings")
	require.Len(t, calls, 1)
	assert.Equal(t, auditSettings, calls[0].args[0])
}

func TestSensitiveData(t *testing.T) {
	probe := (&stubProbe{}).on([]map[string]any{
		row("schema_name", "public", "table_name", "users", "column_name", "password_hash"),
		row("schema_name", "auth", "table_name", "tokens", "column_name", "refresh_token"),
	}, "ILIKE ANY")

	res := newSensitiveData(defaultSensitiveKeywords).Probe(context.Background(), probe, database, domain.DefaultThresholds())

	warnings := texts(res, domain.SeverityWarning)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "users.password_hash")
	assert.Contains(t, warnings[1], "auth.tokens.refresh_token")
}

func TestTransitEncryption(t *testing.T) {
	on := (&stubProbe{}).on([]map[string]any{row("ssl", "on")}, "SHOW ssl")
	res := newTransitEncryption().Probe(context.Background(), on, database, domain.DefaultThresholds())
	assert.Equal(t, 1, res.Count(domain.SeverityInfo))

	off := (&stubProbe{}).on([]map[string]any{row("ssl", "off")}, "SHOW ssl")
	res = newTransitEncryption().Probe(context.Background(), off, database, domain.DefaultThresholds())
	assert.Equal(t, 1, res.Count(domain.SeverityWarning))
}

func TestAtRestEncryption(t *testing.T) {
	installed := (&stubProbe{}).on([]map[string]any{row("extname", "pgcrypto")}, "pg_extension")
	res := newAtRestEncryption().Probe(context.Background(), installed, database, domain.DefaultThresholds())
	assert.Equal(t, 1, res.Count(domain.SeverityInfo))

	res = newAtRestEncryption().Probe(context.Background(), &stubProbe{}, database, domain.DefaultThresholds())
	assert.Equal(t, 1, res.Count(domain.SeverityWarning))
}
