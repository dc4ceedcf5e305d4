package policy

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy holds operator-controlled advisory configuration loaded from a YAML file.
//
//	rules:
//	  disabled: [sensitive_data]
//	tables:
//	  exclude: [public.schema_migrations]
//	sensitive_keywords: [ssn, iban]
//	default_usernames: "root, dba"
type Policy struct {
	Rules             RulesConfig  `yaml:"rules"`
	Tables            TablesConfig `yaml:"tables"`
	SensitiveKeywords StringList   `yaml:"sensitive_keywords"`
	DefaultUsernames  StringList   `yaml:"default_usernames"`
}

// RulesConfig switches catalog rules off by name.
type RulesConfig struct {
	Disabled StringList `yaml:"disabled"`
}

// TablesConfig lists tables (schema.table, or a bare name for public) that
// table-scoped rules skip.
type TablesConfig struct {
	Exclude StringList `yaml:"exclude"`
}

// StringList accepts either a YAML sequence or a comma-separated scalar.
//
//	sensitive_keywords: [ssn, iban]     # sequence
//	sensitive_keywords: "ssn, iban"     # scalar
type StringList []string

func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var out []string
		for _, s := range strings.Split(value.Value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		*l = out
		return nil
	}
	var raw []string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decoding string list: %w", err)
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		out = append(out, strings.TrimSpace(s))
	}
	*l = out
	return nil
}
