package domain

import (
	"errors"
	"time"
)

// ErrDiscovery marks the only session-fatal failure: the table list could
// not be read.
var ErrDiscovery = errors.New("table discovery failed")

// SessionState is a RunSession lifecycle state.
type SessionState string

const (
	SessionIdle        SessionState = "idle"
	SessionDiscovering SessionState = "discovering"
	SessionRunning     SessionState = "running"
	SessionAggregating SessionState = "aggregating"
	SessionComplete    SessionState = "complete"
	SessionFailed      SessionState = "failed"
)

// Report is the output of one completed session.
type Report struct {
	Targets     []Target      `json:"-"`
	Results     []Result      `json:"-"`
	Invocations int           `json:"invocations"`
	Duration    time.Duration `json:"duration"`
}

// Summary counts messages by severity across all results.
func (r *Report) Summary() (info, warnings, errs int) {
	for _, res := range r.Results {
		info += res.Count(SeverityInfo)
		warnings += res.Count(SeverityWarning)
		errs += res.Count(SeverityError)
	}
	return info, warnings, errs
}
