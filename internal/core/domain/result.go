package domain

import "fmt"

// Severity classifies a single finding.
type Severity string

const (
	// SeverityInfo describes current state with no implied defect.
	SeverityInfo Severity = "info"
	// SeverityWarning recommends a schema or configuration change.
	SeverityWarning Severity = "warning"
	// SeverityError means a rule, or one step of it, failed to complete.
	SeverityError Severity = "error"
)

// Message is one finding produced by a rule invocation.
// Err is set only for SeverityError and is rendered by presentation adapters.
type Message struct {
	Text     string
	Severity Severity
	Err      error
}

// Result is one rule's findings for one invocation. Title is the merge key.
type Result struct {
	Title    string
	Messages []Message
}

func Info(format string, args ...any) Message {
	return Message{Text: fmt.Sprintf(format, args...), Severity: SeverityInfo}
}

func Warning(format string, args ...any) Message {
	return Message{Text: fmt.Sprintf(format, args...), Severity: SeverityWarning}
}

// Failure builds an Error message whose text describes the step that failed.
func Failure(err error, format string, args ...any) Message {
	return Message{Text: fmt.Sprintf(format, args...), Severity: SeverityError, Err: err}
}

// String renders the message text, appending the underlying error if any.
func (m Message) String() string {
	if m.Err == nil {
		return m.Text
	}
	return m.Text + ": " + m.Err.Error()
}

// Count returns the number of messages with the given severity.
func (r Result) Count(sev Severity) int {
	n := 0
	for _, m := range r.Messages {
		if m.Severity == sev {
			n++
		}
	}
	return n
}

// NoIssues is the single Info message a rule reports when it finds nothing.
func NoIssues(target Target) Message {
	if target.IsDatabase() {
		return Info("No issues found.")
	}
	return Info("No issues found in table '%s'.", target.Display())
}
