package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/spf13/viper"
)

// Threshold keys. In a thresholds file they are used as-is; in the
// environment they are upper-cased (ENUM_THRESHOLD, ...).
const (
	KeyEnumThreshold          = "enum_threshold"
	KeyUnusedIndexThreshold   = "unused_index_threshold"
	KeyUnusedColumnPercentage = "unused_column_percentage_threshold"
	KeyDataLengthRatio        = "data_length_ratio"
	KeyTypeSampleSize         = "type_sample_size"
	KeyBRINMinRows            = "brin_min_rows"
)

// ResolveThresholds reads thresholds from the environment and, when path is
// set, a YAML file. Environment values win over the file. Absent values take
// the defaults; unparsable or out-of-range values also take the defaults and
// produce a warning. Only an unreadable file is an error.
func ResolveThresholds(path string) (domain.Thresholds, []string, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return domain.Thresholds{}, nil, fmt.Errorf("reading thresholds file %s: %w", path, err)
		}
	}

	r := resolver{v: v}
	th := domain.DefaultThresholds()
	th.EnumCandidateMax = r.boundedIntVal(KeyEnumThreshold, th.EnumCandidateMax, domain.MaxEnumCandidates)
	th.UnusedIndexScans = r.int64Val(KeyUnusedIndexThreshold, th.UnusedIndexScans)
	th.UnusedColumnPercent = r.percentVal(KeyUnusedColumnPercentage, th.UnusedColumnPercent)
	th.DataLengthRatio = r.floatVal(KeyDataLengthRatio, th.DataLengthRatio)
	th.TypeSampleSize = r.intVal(KeyTypeSampleSize, th.TypeSampleSize)
	th.BRINMinRows = r.int64Val(KeyBRINMinRows, th.BRINMinRows)

	return th, r.warnings, nil
}

type resolver struct {
	v        *viper.Viper
	warnings []string
}

func (r *resolver) raw(key string) string {
	return strings.TrimSpace(r.v.GetString(key))
}

func (r *resolver) fallback(key, raw string, def any) {
	r.warnings = append(r.warnings,
		fmt.Sprintf("invalid %s value %q, using default %v", strings.ToUpper(key), raw, def))
}

func (r *resolver) intVal(key string, def int) int {
	s := r.raw(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		r.fallback(key, s, def)
		return def
	}
	return n
}

func (r *resolver) boundedIntVal(key string, def, limit int) int {
	n := r.intVal(key, def)
	if n > limit {
		r.fallback(key, r.raw(key), def)
		return def
	}
	return n
}

func (r *resolver) int64Val(key string, def int64) int64 {
	s := r.raw(key)
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		r.fallback(key, s, def)
		return def
	}
	return n
}

func (r *resolver) floatVal(key string, def float64) float64 {
	s := r.raw(key)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		r.fallback(key, s, def)
		return def
	}
	return f
}

func (r *resolver) percentVal(key string, def float64) float64 {
	s := r.raw(key)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || f > 100 {
		r.fallback(key, s, def)
		return def
	}
	return f
}

// applyThresholdOverrides applies CLI threshold flags. Flags are explicit,
// so bad values are errors rather than warnings.
func applyThresholdOverrides(th *domain.Thresholds, o Overrides) error {
	if o.EnumThreshold != nil {
		if *o.EnumThreshold <= 0 || *o.EnumThreshold > domain.MaxEnumCandidates {
			return fmt.Errorf("invalid --enum-threshold value: must be a positive integer up to %d", domain.MaxEnumCandidates)
		}
		th.EnumCandidateMax = *o.EnumThreshold
	}
	if o.UnusedIndexThreshold != nil {
		if *o.UnusedIndexThreshold <= 0 {
			return fmt.Errorf("invalid --unused-index-threshold value: must be a positive integer")
		}
		th.UnusedIndexScans = *o.UnusedIndexThreshold
	}
	if o.UnusedColumnPercent != nil {
		if *o.UnusedColumnPercent <= 0 || *o.UnusedColumnPercent > 100 {
			return fmt.Errorf("invalid --unused-column-percentage value: must be in (0, 100]")
		}
		th.UnusedColumnPercent = *o.UnusedColumnPercent
	}
	return nil
}
