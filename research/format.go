package research

import (
	"strconv"
	"strings"

	"github.com/bububa/research-assistant/tools/search"
)

// NoResultsReport is returned by Format when there is nothing to report
const NoResultsReport = "No search results found."

// Format renders search results as a markdown report, keeping their order.
func Format(q Query, results []search.Result) string {
	if len(results) == 0 {
		return NoResultsReport
	}
	var b strings.Builder
	b.WriteString("# Research Report: ")
	b.WriteString(q.String())
	b.WriteString("\n\n## Sources\n")
	for idx, r := range results {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = "Untitled"
		}
		b.WriteString("\n### ")
		b.WriteString(strconv.Itoa(idx + 1))
		b.WriteString(". ")
		b.WriteString(title)
		b.WriteString("\n")
		if snippet := strings.TrimSpace(r.Snippet); snippet != "" {
			b.WriteString(snippet)
			b.WriteString("\n")
		}
		b.WriteString("Source: ")
		b.WriteString(r.URL)
		b.WriteString("\n")
	}
	return b.String()
}
