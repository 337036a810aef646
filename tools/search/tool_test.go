package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bububa/research-assistant/tools"
)

type stubProvider struct {
	mtx     sync.Mutex
	results map[string][]Result
	err     error
	queries []string
}

func (p *stubProvider) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	p.mtx.Lock()
	p.queries = append(p.queries, query)
	p.mtx.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return limit(p.results[query], maxResults), nil
}

func TestToolRunMergesQueries(t *testing.T) {
	provider := &stubProvider{results: map[string][]Result{
		"golang": {
			{Title: "Go", URL: "https://go.dev", Snippet: "The Go language"},
			{Title: "Tour", URL: "https://go.dev/tour", Snippet: "A tour of Go"},
		},
		"go generics": {
			{Title: "Go", URL: "https://go.dev", Snippet: "duplicate"},
			{Title: "Generics", URL: "https://go.dev/doc/tutorial/generics", Snippet: "Tutorial"},
		},
	}}
	tool := NewTool(provider, WithMaxResults(3))

	output, err := tool.Run(context.Background(), NewInput("golang", " ", "go generics"))
	require.NoError(t, err)
	require.Equal(t, []string{"golang", "go generics"}, provider.queries)
	require.Equal(t, int64(2), tool.Calls())
	require.Len(t, output.Results, 3)
	require.Equal(t, "https://go.dev/doc/tutorial/generics", output.Results[2].URL)
}

func TestToolRunCaps(t *testing.T) {
	provider := &stubProvider{results: map[string][]Result{
		"a": {{Title: "1", URL: "u1"}, {Title: "2", URL: "u2"}},
		"b": {{Title: "3", URL: "u3"}},
	}}
	tool := NewTool(provider, WithMaxResults(2), WithMaxQueries(1))

	output, err := tool.Run(context.Background(), NewInput("a", "b"))
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, provider.queries)
	require.Len(t, output.Results, 2)
}

func TestToolRunError(t *testing.T) {
	provider := &stubProvider{err: &Error{Backend: "stub", Err: errors.New("boom")}}
	tool := NewTool(provider, WithTimeout(time.Second))

	_, err := tool.Run(context.Background(), NewInput("a"))
	require.EqualError(t, err, "stub: boom")

	_, err = tool.Run(context.Background(), NewInput())
	require.Error(t, err)
}

func TestToolRunAnonymous(t *testing.T) {
	provider := &stubProvider{results: map[string][]Result{
		"a": {{Title: "1", URL: "u1", Snippet: "s1"}},
	}}
	tool := NewTool(provider, WithToolOptions(tools.WithTitle("Search"), tools.WithDescription("desc")))
	require.Equal(t, "Search", tool.Title())
	require.Equal(t, "desc", tool.Description())

	for _, in := range []any{"a", NewInput("a"), *NewInput("a")} {
		out, err := tool.RunAnonymous(context.Background(), in)
		require.NoError(t, err)
		require.Equal(t, `{"results":[{"title":"1","snippet":"s1","url":"u1"}]}`, out.String())
	}
	_, err := tool.RunAnonymous(context.Background(), 42)
	require.Error(t, err)
}

func TestOutputContextProvider(t *testing.T) {
	require.Equal(t, "No search results found.", Output{}.Info())
	out := Output{Results: []Result{{Title: "t", URL: "u"}}}
	require.Equal(t, "Web Search Results", out.Title())
	require.Equal(t, `{"results":[{"title":"t","url":"u"}]}`, out.Info())
}
