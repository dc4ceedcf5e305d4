package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageConstructors(t *testing.T) {
	info := Info("table %s ok", "orders")
	assert.Equal(t, SeverityInfo, info.Severity)
	assert.Equal(t, "table orders ok", info.Text)
	assert.NoError(t, info.Err)

	warn := Warning("column %q", "status")
	assert.Equal(t, SeverityWarning, warn.Severity)

	cause := errors.New("permission denied for table orders")
	fail := Failure(cause, "Failed to probe column '%s'", "status")
	assert.Equal(t, SeverityError, fail.Severity)
	assert.ErrorIs(t, fail.Err, cause)
	assert.Equal(t, "Failed to probe column 'status'", fail.Text)
}

func TestMessageString(t *testing.T) {
	assert.Equal(t, "all good", Info("all good").String())
	assert.Equal(t, "probe failed: timeout",
		Failure(errors.New("timeout"), "probe failed").String())
}

func TestResultCount(t *testing.T) {
	r := Result{Title: "X", Messages: []Message{
		Info("a"), Warning("b"), Warning("c"), Failure(errors.New("x"), "d"),
	}}
	assert.Equal(t, 1, r.Count(SeverityInfo))
	assert.Equal(t, 2, r.Count(SeverityWarning))
	assert.Equal(t, 1, r.Count(SeverityError))
}

func TestTargetDisplay(t *testing.T) {
	assert.Equal(t, "orders", Target{Schema: "public", Table: "orders"}.Display())
	assert.Equal(t, "billing.invoices", Target{Schema: "billing", Table: "invoices"}.Display())
	assert.True(t, Target{}.IsDatabase())
	assert.Equal(t, "database", Target{}.String())
	assert.Equal(t, "billing.invoices", Target{Schema: "billing", Table: "invoices"}.String())
}

func TestReportSummary(t *testing.T) {
	r := &Report{Results: []Result{
		{Title: "A", Messages: []Message{Info("a"), Warning("b")}},
		{Title: "B", Messages: []Message{Failure(errors.New("x"), "c"), Warning("d")}},
	}}
	info, warnings, errs := r.Summary()
	assert.Equal(t, 1, info)
	assert.Equal(t, 2, warnings)
	assert.Equal(t, 1, errs)
}

func TestNoIssues(t *testing.T) {
	db := NoIssues(Target{})
	assert.Equal(t, SeverityInfo, db.Severity)
	assert.Equal(t, "No issues found.", db.Text)

	tbl := NoIssues(Target{Schema: "public", Table: "orders"})
	assert.Equal(t, "No issues found in table 'orders'.", tbl.Text)
}
