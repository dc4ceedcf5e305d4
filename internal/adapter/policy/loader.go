package policy

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/guillermoBallester/schemadvisor/internal/rules"
	"gopkg.in/yaml.v3"
)

// LoadFromFile reads a YAML policy file and returns a validated Policy.
func LoadFromFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}

	var pol Policy
	if err := yaml.Unmarshal(data, &pol); err != nil {
		return nil, fmt.Errorf("parsing policy YAML: %w", err)
	}

	if err := validate(&pol, rules.Names()); err != nil {
		return nil, fmt.Errorf("validating policy: %w", err)
	}

	return &pol, nil
}

func validate(pol *Policy, known []string) error {
	for _, name := range pol.Rules.Disabled {
		if !slices.Contains(known, name) {
			return fmt.Errorf("rules.disabled: unknown rule %q (known: %s)", name, strings.Join(known, ", "))
		}
	}
	for _, t := range pol.Tables.Exclude {
		if _, ok := excludedTable(t); !ok {
			return fmt.Errorf("tables.exclude: invalid table name %q (want table or schema.table)", t)
		}
	}
	if err := nonEmpty("sensitive_keywords", pol.SensitiveKeywords); err != nil {
		return err
	}
	return nonEmpty("default_usernames", pol.DefaultUsernames)
}

func nonEmpty(field string, list StringList) error {
	for i, s := range list {
		if s == "" {
			return fmt.Errorf("%s[%d] is empty", field, i)
		}
	}
	return nil
}
