package domain

// Merge groups results by title, preserving first-seen title order, and
// concatenates each group's messages in input order. It never mutates its
// input, so calling it twice on the same slice yields identical output.
func Merge(results []Result) []Result {
	index := make(map[string]int, len(results))
	merged := make([]Result, 0, len(results))

	for _, r := range results {
		i, ok := index[r.Title]
		if !ok {
			i = len(merged)
			index[r.Title] = i
			merged = append(merged, Result{Title: r.Title})
		}
		merged[i].Messages = append(merged[i].Messages, r.Messages...)
	}
	return merged
}
