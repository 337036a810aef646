package search

import (
	"context"
	"strings"
)

// Result is a single item returned by a Provider, in relevance order.
type Result struct {
	Title   string `json:"title" jsonschema:"title=title,description=The title of the search result"`
	Snippet string `json:"snippet,omitempty" jsonschema:"title=snippet,description=The content snippet of the search result"`
	URL     string `json:"url" jsonschema:"title=url,description=The URL of the search result"`
}

// Provider executes a query against a search service.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Error is returned for any transport or backend failure.
type Error struct {
	Backend string
	Err     error
}

func (e *Error) Error() string {
	if e.Backend == "" {
		return e.Err.Error()
	}
	return e.Backend + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func limit(results []Result, maxResults int) []Result {
	if maxResults > 0 && len(results) > maxResults {
		return results[:maxResults]
	}
	return results
}

func validQuery(query string) bool {
	return strings.TrimSpace(query) != ""
}
