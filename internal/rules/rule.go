// Package rules holds the advisory rule catalog. Every rule reports its
// findings, including its own failures, as messages of a single Result.
package rules

import (
	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/guillermoBallester/schemadvisor/internal/core/port"
)

var (
	defaultSensitiveKeywords = []string{"password", "passwd", "token", "apikey", "api_key", "secret"}
	defaultUsernames         = []string{"postgres", "pg", "admin", "user"}
)

// Options extends the built-in keyword lists used by the security rules.
type Options struct {
	SensitiveKeywords []string
	DefaultUsernames  []string
}

// Catalog returns every rule in registration order: table-scoped rules
// first, then database-scoped rules.
func Catalog(opts Options) []port.Rule {
	return []port.Rule{
		newColumnTypes(),
		newTemporalTypes(),
		newDataLength(),
		newEnumCandidates(),
		newNumericPrecision(),
		newUnusedColumns(),
		newForeignKeys(),

		newIndexUsage(),
		newSuperuserAccess(),
		newDefaultAccounts(appendUnique(defaultUsernames, opts.DefaultUsernames)),
		newRolesPermissions(),
		newPasswordPolicy(),
		newLoggingAuditing(),
		newSensitiveData(appendUnique(defaultSensitiveKeywords, opts.SensitiveKeywords)),
		newTransitEncryption(),
		newAtRestEncryption(),
	}
}

// Names lists rule names in registration order.
func Names() []string {
	catalog := Catalog(Options{})
	names := make([]string, len(catalog))
	for i, r := range catalog {
		names[i] = r.Name()
	}
	return names
}

func appendUnique(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, s := range list {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// base carries the identity every rule shares.
type base struct {
	name  string
	title string
	scope port.Scope
}

func (b base) Name() string      { return b.name }
func (b base) Title() string     { return b.title }
func (b base) Scope() port.Scope { return b.scope }

// findings accumulates one invocation's messages.
type findings struct {
	title    string
	target   domain.Target
	messages []domain.Message
}

func (b base) findings(target domain.Target) *findings {
	return &findings{title: b.title, target: target}
}

func (f *findings) info(format string, args ...any) {
	f.messages = append(f.messages, domain.Info(format, args...))
}

func (f *findings) warn(format string, args ...any) {
	f.messages = append(f.messages, domain.Warning(format, args...))
}

func (f *findings) fail(err error, format string, args ...any) {
	f.messages = append(f.messages, domain.Failure(err, format, args...))
}

// result closes the invocation, adding the "no issues" message when
// nothing was reported.
func (f *findings) result() domain.Result {
	if len(f.messages) == 0 {
		f.messages = append(f.messages, domain.NoIssues(f.target))
	}
	return domain.Result{Title: f.title, Messages: f.messages}
}
