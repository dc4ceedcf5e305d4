package policy

import (
	"slices"
	"strings"

	"github.com/guillermoBallester/schemadvisor/internal/core/port"
	"github.com/guillermoBallester/schemadvisor/internal/rules"
)

// Options extracts the keyword extensions for the security rules.
// Keywords are matched case-insensitively, so they are lowered here.
func Options(pol *Policy) rules.Options {
	if pol == nil {
		return rules.Options{}
	}
	kw := make([]string, len(pol.SensitiveKeywords))
	for i, k := range pol.SensitiveKeywords {
		kw[i] = strings.ToLower(k)
	}
	return rules.Options{
		SensitiveKeywords: kw,
		DefaultUsernames:  slices.Clone(pol.DefaultUsernames),
	}
}

// Catalog builds the rule catalog with the policy's extensions applied and
// its disabled rules removed. Registration order is preserved.
func Catalog(pol *Policy) []port.Rule {
	catalog := rules.Catalog(Options(pol))
	if pol == nil || len(pol.Rules.Disabled) == 0 {
		return catalog
	}
	return slices.DeleteFunc(catalog, func(r port.Rule) bool {
		return slices.Contains(pol.Rules.Disabled, r.Name())
	})
}
