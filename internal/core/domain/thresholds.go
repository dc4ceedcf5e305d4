package domain

// MaxEnumCandidates bounds EnumCandidateMax wherever it is set.
const MaxEnumCandidates = 10000

// Thresholds are the tunable rule parameters, resolved once per session.
type Thresholds struct {
	EnumCandidateMax    int     `json:"enum_threshold"`
	UnusedIndexScans    int64   `json:"unused_index_threshold"`
	UnusedColumnPercent float64 `json:"unused_column_percentage_threshold"`
	DataLengthRatio     float64 `json:"data_length_ratio"`
	TypeSampleSize      int     `json:"type_sample_size"`
	BRINMinRows         int64   `json:"brin_min_rows"`
}

// DefaultThresholds returns the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EnumCandidateMax:    5,
		UnusedIndexScans:    50,
		UnusedColumnPercent: 5,
		DataLengthRatio:     2,
		TypeSampleSize:      1000,
		BRINMinRows:         10000,
	}
}
