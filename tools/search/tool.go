package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/atomic"

	"github.com/bububa/research-assistant/components/systemprompt"
	"github.com/bububa/research-assistant/schema"
	"github.com/bububa/research-assistant/tools"
)

// Input schema for the web search tool.
type Input struct {
	schema.Base
	// Queries list of search queries.
	Queries []string `json:"queries" jsonschema:"title=queries,description=List of web search queries. Use one to three short keyword queries." validate:"required,min=1,dive,required"`
}

func NewInput(queries ...string) *Input {
	return &Input{Queries: queries}
}

func (s Input) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// Output represents the output of the web search tool. It doubles as a
// system prompt context provider so results can be handed to an agent.
type Output struct {
	schema.Base
	// Results List of search result items in relevance order
	Results []Result `json:"results" jsonschema:"title=results,description=List of search result items"`
}

var _ systemprompt.ContextProvider = (*Output)(nil)

func (s Output) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

func (s Output) Title() string {
	return "Web Search Results"
}

func (s Output) Info() string {
	if len(s.Results) == 0 {
		return "No search results found."
	}
	return s.String()
}

type ToolOption func(*Tool)

func WithToolOptions(opts ...tools.Option) ToolOption {
	return func(t *Tool) {
		for _, opt := range opts {
			opt(&t.Config)
		}
	}
}

// WithMaxResults caps the number of results returned by one tool call
func WithMaxResults(n int) ToolOption {
	return func(t *Tool) {
		t.maxResults = n
	}
}

// WithMaxQueries caps the number of queries executed by one tool call
func WithMaxQueries(n int) ToolOption {
	return func(t *Tool) {
		t.maxQueries = n
	}
}

// WithTimeout bounds every provider call
func WithTimeout(d time.Duration) ToolOption {
	return func(t *Tool) {
		t.timeout = d
	}
}

// Tool exposes a Provider to agents.
type Tool struct {
	tools.Config
	provider   Provider
	maxResults int
	maxQueries int
	timeout    time.Duration
	calls      *atomic.Int64
}

var (
	_ tools.Tool[Input, Output] = (*Tool)(nil)
	_ tools.AnonymousTool       = (*Tool)(nil)
)

func NewTool(provider Provider, opts ...ToolOption) *Tool {
	ret := &Tool{
		provider: provider,
		calls:    atomic.NewInt64(0),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.Title() == "" {
		ret.SetTitle("WebSearchTool")
	}
	if ret.Description() == "" {
		ret.SetDescription("Search the web for information. Returns titles, snippets and source URLs.")
	}
	if ret.maxResults <= 0 {
		ret.maxResults = 5
	}
	if ret.maxQueries <= 0 {
		ret.maxQueries = 3
	}
	return ret
}

// Calls returns the number of provider searches issued by the tool
func (t *Tool) Calls() int64 {
	return t.calls.Load()
}

// Run executes the queries in order, merging results by URL and capping the
// merged list at the configured maximum.
func (t *Tool) Run(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || len(input.Queries) == 0 {
		return nil, errors.New("no search queries")
	}
	queries := input.Queries
	if len(queries) > t.maxQueries {
		queries = queries[:t.maxQueries]
	}
	output := &Output{Results: make([]Result, 0, t.maxResults)}
	seen := make(map[string]struct{}, t.maxResults)
	for _, query := range queries {
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}
		results, err := t.search(ctx, query)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if _, ok := seen[r.URL]; ok {
				continue
			}
			seen[r.URL] = struct{}{}
			output.Results = append(output.Results, r)
		}
		if len(output.Results) >= t.maxResults {
			break
		}
	}
	output.Results = limit(output.Results, t.maxResults)
	return output, nil
}

func (t *Tool) search(ctx context.Context, query string) ([]Result, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	t.calls.Inc()
	return t.provider.Search(ctx, query, t.maxResults)
}

// RunAnonymous accepts *Input, Input, or a bare query string
func (t *Tool) RunAnonymous(ctx context.Context, input any) (schema.Schema, error) {
	switch in := input.(type) {
	case *Input:
		return t.Run(ctx, in)
	case Input:
		return t.Run(ctx, &in)
	case string:
		return t.Run(ctx, NewInput(in))
	default:
		return nil, fmt.Errorf("invalid tool input schema %T", input)
	}
}
