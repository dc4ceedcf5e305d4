package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/guillermoBallester/schemadvisor/internal/core/port"
)

type superuserAccess struct{ base }

func newSuperuserAccess() *superuserAccess {
	return &superuserAccess{base{name: "superuser_access", title: "Superuser Access Analysis", scope: port.ScopeDatabase}}
}

// Probe warns when more than one role is a superuser. One is assumed to be
// the legitimate bootstrap account.
func (r *superuserAccess) Probe(ctx context.Context, probe port.SchemaProbe, target domain.Target, _ domain.Thresholds) domain.Result {
	f := r.findings(target)
	rows, err := probe.Query(ctx, querySuperusers)
	if err != nil {
		f.fail(err, "Failed to list superuser accounts")
		return f.result()
	}
	if len(rows) > 1 {
		f.warn("Found multiple superuser accounts: %s. Consider reviewing the necessity of each account.", joinColumn(rows, "username"))
	}
	return f.result()
}

type defaultAccounts struct {
	base
	usernames []string
}

func newDefaultAccounts(usernames []string) *defaultAccounts {
	return &defaultAccounts{
		base:      base{name: "default_accounts", title: "Default Account Review", scope: port.ScopeDatabase},
		usernames: usernames,
	}
}

func (r *defaultAccounts) Probe(ctx context.Context, probe port.SchemaProbe, target domain.Target, _ domain.Thresholds) domain.Result {
	f := r.findings(target)
	rows, err := probe.Query(ctx, queryLoginRolesNamed, r.usernames)
	if err != nil {
		f.fail(err, "Failed to review default accounts")
		return f.result()
	}
	if len(rows) > 0 {
		f.warn("Found common usernames that may have weak/default passwords: %s. Please review these accounts.", joinColumn(rows, "username"))
	}
	return f.result()
}

type rolesPermissions struct{ base }

func newRolesPermissions() *rolesPermissions {
	return &rolesPermissions{base{name: "roles_permissions", title: "Roles, Permissions, and Database Access Analysis", scope: port.ScopeDatabase}}
}

// Probe reports each non-system role's attributes and access as Info. A
// role whose access cannot be read gets an Error of its own.
func (r *rolesPermissions) Probe(ctx context.Context, probe port.SchemaProbe, target domain.Target, _ domain.Thresholds) domain.Result {
	f := r.findings(target)
	roles, err := probe.Query(ctx, queryRoles)
	if err != nil {
		f.fail(err, "Failed to list roles")
		return f.result()
	}

	for _, role := range roles {
		name := str(role["role_name"])
		access, err := roleAccess(ctx, probe, name)
		if err != nil {
			f.fail(err, "Failed to read access of role '%s'", name)
			continue
		}
		f.info("Role '%s': superuser: %t, can login: %t, create role: %t, create database: %t. %s",
			name,
			boolOf(role["rolsuper"]),
			boolOf(role["rolcanlogin"]),
			boolOf(role["rolcreaterole"]),
			boolOf(role["rolcreatedb"]),
			access)
	}
	return f.result()
}

func roleAccess(ctx context.Context, probe port.SchemaProbe, role string) (string, error) {
	dbs, err := probe.Query(ctx, queryRoleDatabases, role)
	if err != nil {
		return "", fmt.Errorf("reading connectable databases: %w", err)
	}
	privs, err := probe.Query(ctx, queryRolePrivileges, role)
	if err != nil {
		return "", fmt.Errorf("reading privileges: %w", err)
	}

	databases := joinColumn(dbs, "database_name")
	if databases == "" {
		databases = "none"
	}
	grants := make([]string, 0, len(privs))
	for _, p := range privs {
		grants = append(grants, fmt.Sprintf("%s (%s)", qualified(p), str(p["privileges"])))
	}
	permissions := "no explicit permissions on database objects"
	if len(grants) > 0 {
		permissions = "permissions: " + strings.Join(grants, "; ")
	}
	return fmt.Sprintf("Accessible databases: %s; %s.", databases, permissions), nil
}

func joinColumn(rows []map[string]any, key string) string {
	vals := make([]string, 0, len(rows))
	for _, row := range rows {
		vals = append(vals, str(row[key]))
	}
	return strings.Join(vals, ", ")
}
