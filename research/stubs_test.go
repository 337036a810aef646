package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/atomic"

	"github.com/bububa/research-assistant/tools/search"
)

// stubSearch is a search.Provider returning fixed results
type stubSearch struct {
	results []search.Result
	err     error
	calls   atomic.Int64
	mtx     sync.Mutex
	queries []string
}

func (s *stubSearch) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	s.calls.Inc()
	s.mtx.Lock()
	s.queries = append(s.queries, query)
	s.mtx.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if maxResults > 0 && len(s.results) > maxResults {
		return s.results[:maxResults], nil
	}
	return s.results, nil
}

// fakeLLM is an OpenAI compatible endpoint answering with canned contents
// in order, the last one is repeated.
type fakeLLM struct {
	*httptest.Server
	mtx      sync.Mutex
	contents []string
	status   int
	requests []openai.ChatCompletionRequest
}

func newFakeLLM(t *testing.T, contents ...string) *fakeLLM {
	t.Helper()
	f := &fakeLLM{contents: contents, status: http.StatusOK}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mtx.Lock()
		idx := len(f.requests)
		f.requests = append(f.requests, req)
		status := f.status
		content := ""
		if l := len(f.contents); l > 0 {
			content = f.contents[min(idx, l-1)]
		}
		f.mtx.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "fake failure", "type": "server_error"},
			})
			return
		}
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:      "chatcmpl-fake",
			Object:  "chat.completion",
			Created: 1700000000,
			Model:   req.Model,
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		})
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeLLM) Requests() []openai.ChatCompletionRequest {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return append([]openai.ChatCompletionRequest(nil), f.requests...)
}

func (f *fakeLLM) Descriptor() LLMDescriptor {
	return LLMDescriptor{
		Provider: ProviderOpenAI,
		APIKey:   "test-key",
		BaseURL:  f.URL + "/v1",
		Model:    "gpt-test",
	}
}

// stubRunner is a Runner with a canned result
type stubRunner struct {
	report string
	err    error
	run    func(ctx context.Context) (string, error)
}

func (r stubRunner) Run(ctx context.Context) (string, error) {
	if r.run != nil {
		return r.run(ctx)
	}
	return r.report, r.err
}

// requestContains reports whether any message of req contains substr
func requestContains(req openai.ChatCompletionRequest, substr string) bool {
	for _, msg := range req.Messages {
		if strings.Contains(msg.Content, substr) {
			return true
		}
	}
	return false
}
