package rules

import (
	"context"
	"strings"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/guillermoBallester/schemadvisor/internal/core/port"
)

type passwordPolicy struct{ base }

func newPasswordPolicy() *passwordPolicy {
	return &passwordPolicy{base{name: "password_policy", title: "Password Policy and Security Modules Analysis", scope: port.ScopeDatabase}}
}

func (r *passwordPolicy) Probe(ctx context.Context, probe port.SchemaProbe, target domain.Target, _ domain.Thresholds) domain.Result {
	f := r.findings(target)

	if rows, err := probe.Query(ctx, queryPreloadLibraries); err != nil {
		f.fail(err, "Failed to read shared_preload_libraries")
	} else {
		libs := map[string]bool{}
		if len(rows) > 0 {
			for _, lib := range strings.Split(str(rows[0]["shared_preload_libraries"]), ",") {
				libs[strings.Trim(strings.TrimSpace(lib), `"`)] = true
			}
		}
		if libs["passwordcheck"] {
			f.info("Password policy module (passwordcheck) is enabled. Ensure it is properly configured for enforcing strong passwords.")
		} else {
			f.warn("Password policy module (passwordcheck) is not enabled. Consider enabling it for enhanced password security.")
		}
		if libs["pgaudit"] {
			f.info("Audit logging module (pgAudit) is enabled, which can help in monitoring authentication attempts and other database activities.")
		} else {
			f.warn("Audit logging module (pgAudit) is not enabled. Consider enabling it to improve security monitoring and compliance.")
		}
	}

	if rows, err := probe.Query(ctx, queryPasswordEncryption); err != nil {
		f.fail(err, "Failed to read password_encryption")
	} else if len(rows) > 0 {
		method := str(rows[0]["password_encryption"])
		if strings.EqualFold(method, "md5") {
			f.warn("Passwords are hashed with md5. Consider setting password_encryption to scram-sha-256.")
		} else {
			f.info("Passwords are hashed with %s.", method)
		}
	}
	return f.result()
}

// auditSettings are reported in this order.
var auditSettings = []string{
	"log_connections",
	"log_disconnections",
	"log_statement",
	"log_min_duration_statement",
	"log_lock_waits",
	"log_checkpoints",
	"log_error_verbosity",
	"log_min_error_statement",
	"log_min_messages",
	"log_autovacuum_min_duration",
	"log_replication_commands",
	"log_recovery_conflict_waits",
	"log_transaction_sample_rate",
}

type loggingAuditing struct{ base }

func newLoggingAuditing() *loggingAuditing {
	return &loggingAuditing{base{name: "logging_auditing", title: "Logging and Auditing Analysis", scope: port.ScopeDatabase}}
}

func (r *loggingAuditing) Probe(ctx context.Context, probe port.SchemaProbe, target domain.Target, _ domain.Thresholds) domain.Result {
	f := r.findings(target)
	rows, err := probe.Query(ctx, querySettings, auditSettings)
	if err != nil {
		f.fail(err, "Failed to read logging settings")
		return f.result()
	}
	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[str(row["name"])] = str(row["setting"])
	}

	for _, name := range auditSettings {
		value, ok := settings[name]
		switch {
		case !ok:
			f.info("%s: not available on this server", name)
		case (name == "log_connections" || name == "log_disconnections") && (value == "off" || value == ""):
			f.warn("%s is off. Consider enabling it to audit session activity.", name)
		case name == "log_statement" && value == "none":
			f.warn("log_statement is 'none'. Consider 'ddl' or 'mod' to audit schema and data changes.")
		default:
			f.info("%s: %s", name, value)
		}
	}
	return f.result()
}

type sensitiveData struct {
	base
	keywords []string
}

func newSensitiveData(keywords []string) *sensitiveData {
	return &sensitiveData{
		base:     base{name: "sensitive_data", title: "Exposed Sensitive Information Analysis", scope: port.ScopeDatabase},
		keywords: keywords,
	}
}

func (r *sensitiveData) Probe(ctx context.Context, probe port.SchemaProbe, target domain.Target, _ domain.Thresholds) domain.Result {
	f := r.findings(target)
	patterns := make([]string, len(r.keywords))
	for i, k := range r.keywords {
		patterns[i] = "%" + escapeLike(k) + "%"
	}

	rows, err := probe.Query(ctx, querySensitiveColumns, patterns)
	if err != nil {
		f.fail(err, "Failed to search for sensitive columns")
		return f.result()
	}
	for _, row := range rows {
		f.warn("Potential sensitive column found: %s.%s. Ensure its contents are hashed or encrypted and access is restricted.",
			qualified(row), str(row["column_name"]))
	}
	return f.result()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type transitEncryption struct{ base }

func newTransitEncryption() *transitEncryption {
	return &transitEncryption{base{name: "transit_encryption", title: "Data-in-Transit Encryption Analysis", scope: port.ScopeDatabase}}
}

func (r *transitEncryption) Probe(ctx context.Context, probe port.SchemaProbe, target domain.Target, _ domain.Thresholds) domain.Result {
	f := r.findings(target)
	rows, err := probe.Query(ctx, querySSL)
	if err != nil {
		f.fail(err, "Failed to read the ssl setting")
		return f.result()
	}
	if len(rows) > 0 && boolOf(rows[0]["ssl"]) {
		f.info("SSL is enabled, suggesting data-in-transit is encrypted.")
	} else {
		f.warn("SSL is not enabled. Consider enabling SSL to encrypt data-in-transit.")
	}
	return f.result()
}

type atRestEncryption struct{ base }

func newAtRestEncryption() *atRestEncryption {
	return &atRestEncryption{base{name: "at_rest_encryption", title: "Data-at-Rest Encryption Analysis", scope: port.ScopeDatabase}}
}

func (r *atRestEncryption) Probe(ctx context.Context, probe port.SchemaProbe, target domain.Target, _ domain.Thresholds) domain.Result {
	f := r.findings(target)
	rows, err := probe.Query(ctx, queryPgcrypto)
	if err != nil {
		f.fail(err, "Failed to check for the pgcrypto extension")
		return f.result()
	}
	if len(rows) > 0 {
		f.info("The pgcrypto extension is installed, suggesting some level of column-level encryption may be in use.")
	} else {
		f.warn("The pgcrypto extension is not installed. Consider using pgcrypto for column-level encryption or ensure filesystem-level encryption is enabled.")
	}
	return f.result()
}
