package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleResults() []domain.Result {
	return []domain.Result{
		{
			Title: "Enum Candidate Analysis",
			Messages: []domain.Message{
				domain.Warning("Column 'status' in table 'orders' has 3 distinct values. Consider using an enum type."),
				domain.Failure(errors.New("permission denied"), "Failed to analyze column 'kind' in table 'orders'"),
			},
		},
		{
			Title:    "Superuser Access Analysis",
			Messages: []domain.Message{domain.NoIssues(domain.Target{})},
		},
	}
}

func TestView(t *testing.T) {
	views := View(sampleResults())
	require.Len(t, views, 2)

	assert.Equal(t, "Enum Candidate Analysis", views[0].Title)
	assert.Equal(t, "warning", views[0].Messages[0].Type)
	assert.Equal(t, "error", views[0].Messages[1].Type)
	assert.Equal(t, "Failed to analyze column 'kind' in table 'orders': permission denied", views[0].Messages[1].Text)
	assert.Equal(t, MessageView{Text: "No issues found.", Type: "info"}, views[1].Messages[0])
}

func TestView_Empty(t *testing.T) {
	views := View(nil)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleResults()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Enum Candidate Analysis", decoded[0]["title"])

	msgs := decoded[0]["messages"].([]any)
	first := msgs[0].(map[string]any)
	assert.Equal(t, "warning", first["type"])
	assert.Contains(t, first["text"], "3 distinct values")
}

func TestJSON_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YAML(&buf, sampleResults()))

	var decoded []ResultView
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, View(sampleResults()), decoded)
}

func TestPrinter_Results_NoColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, false).Results(sampleResults()))

	want := "Enum Candidate Analysis\n" +
		"[WARNING] Column 'status' in table 'orders' has 3 distinct values. Consider using an enum type.\n" +
		"[ERROR] Failed to analyze column 'kind' in table 'orders': permission denied\n" +
		"\n" +
		"Superuser Access Analysis\n" +
		"[INFO] No issues found.\n"
	assert.Equal(t, want, buf.String())
}

func TestPrinter_Results_Color(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, true).Results(sampleResults()))

	out := buf.String()
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "No issues found.")
}

func TestPrinter_Summary(t *testing.T) {
	report := &domain.Report{
		Targets:     []domain.Target{{Schema: "public", Table: "orders"}},
		Results:     sampleResults(),
		Invocations: 16,
		Duration:    1234567 * time.Microsecond,
	}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, false).Summary(report))
	assert.Equal(t, "\n1 tables, 16 rule runs in 1.235s: 1 info, 1 warnings, 1 errors\n", buf.String())
}
