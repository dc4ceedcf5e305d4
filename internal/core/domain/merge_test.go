package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_OrderPreservingConcatenation(t *testing.T) {
	m1, m2, m3 := Warning("m1"), Info("m2"), Warning("m3")
	raw := []Result{
		{Title: "A", Messages: []Message{m1}},
		{Title: "B", Messages: []Message{m2}},
		{Title: "A", Messages: []Message{m3}},
	}

	merged := Merge(raw)

	require.Len(t, merged, 2)
	assert.Equal(t, "A", merged[0].Title)
	assert.Equal(t, []Message{m1, m3}, merged[0].Messages)
	assert.Equal(t, "B", merged[1].Title)
	assert.Equal(t, []Message{m2}, merged[1].Messages)
}

func TestMerge_FirstSeenTitleOrder(t *testing.T) {
	raw := []Result{
		{Title: "C", Messages: []Message{Info("c1")}},
		{Title: "A", Messages: []Message{Info("a1")}},
		{Title: "B", Messages: []Message{Info("b1")}},
		{Title: "A", Messages: []Message{Info("a2")}},
		{Title: "C", Messages: []Message{Info("c2")}},
	}

	merged := Merge(raw)

	titles := make([]string, 0, len(merged))
	for _, r := range merged {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"C", "A", "B"}, titles)
	assert.Len(t, merged[0].Messages, 2)
	assert.Len(t, merged[1].Messages, 2)
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil))
	assert.Empty(t, Merge([]Result{}))
}

func TestMerge_Idempotent(t *testing.T) {
	raw := []Result{
		{Title: "A", Messages: []Message{Info("a1")}},
		{Title: "A", Messages: []Message{Failure(errors.New("boom"), "a2")}},
		{Title: "B", Messages: []Message{Warning("b1")}},
	}

	first := Merge(raw)
	second := Merge(raw)

	assert.Equal(t, first, second)
	// The input is not aliased by the output.
	require.Len(t, raw[0].Messages, 1)
	assert.Equal(t, "a1", raw[0].Messages[0].Text)
}

func TestMerge_SetIndependentOfOrder(t *testing.T) {
	a := Result{Title: "T", Messages: []Message{Info("orders")}}
	b := Result{Title: "T", Messages: []Message{Info("users")}}

	ab := Merge([]Result{a, b})
	ba := Merge([]Result{b, a})

	require.Len(t, ab, 1)
	require.Len(t, ba, 1)
	assert.ElementsMatch(t, ab[0].Messages, ba[0].Messages)
	assert.NotEqual(t, ab[0].Messages, ba[0].Messages)
}

func TestMerge_SingleNoIssuesMessagePerEmptyRule(t *testing.T) {
	raw := []Result{
		{Title: "Superuser Access Analysis", Messages: []Message{Info("No issues found.")}},
	}

	merged := Merge(raw)

	require.Len(t, merged, 1)
	require.Len(t, merged[0].Messages, 1)
	assert.Equal(t, SeverityInfo, merged[0].Messages[0].Severity)
}
