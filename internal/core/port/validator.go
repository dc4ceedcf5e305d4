package port

// QueryValidator rejects SQL that is not safe to run as a probe.
type QueryValidator interface {
	Validate(sql string) error
}
