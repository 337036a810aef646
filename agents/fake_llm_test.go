package agents

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bububa/instructor-go/pkg/instructor"
	openai "github.com/sashabaranov/go-openai"
)

// fakeLLM is an OpenAI compatible chat completion endpoint answering with
// canned contents in order, the last one is repeated.
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
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeLLM) handle(w http.ResponseWriter, r *http.Request) {
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
			Index:        0,
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			FinishReason: openai.FinishReasonStop,
		}},
		Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	})
}

func (f *fakeLLM) Requests() []openai.ChatCompletionRequest {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return append([]openai.ChatCompletionRequest(nil), f.requests...)
}

func (f *fakeLLM) Instructor() instructor.Instructor {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = f.URL + "/v1"
	return instructor.FromOpenAI(openai.NewClientWithConfig(cfg), instructor.WithMode(instructor.ModeJSON), instructor.WithMaxRetries(1))
}

// findMessage returns the first message of the request containing substr
func findMessage(req openai.ChatCompletionRequest, substr string) (openai.ChatCompletionMessage, bool) {
	for _, msg := range req.Messages {
		if strings.Contains(msg.Content, substr) {
			return msg, true
		}
	}
	return openai.ChatCompletionMessage{}, false
}
