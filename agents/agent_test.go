package agents

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bububa/research-assistant/components"
	"github.com/bububa/research-assistant/components/systemprompt"
	"github.com/bububa/research-assistant/components/systemprompt/cot"
	"github.com/bububa/research-assistant/schema"
)

func TestAgentRun(t *testing.T) {
	llm := newFakeLLM(t, `{"chat_message":"2024-01-01"}`)
	mem := components.NewMemory(10)
	agent := NewAgent[schema.Input, schema.Output](
		WithClient(llm.Instructor()),
		WithMemory(mem),
		WithModel("gpt-4o-mini"),
		WithTemperature(0.5),
		WithMaxTokens(1000),
		WithName("chatbot"),
	)
	require.Equal(t, "chatbot", agent.Name())

	var (
		started bool
		ended   bool
	)
	agent.SetStartHook(func(context.Context, *Agent[schema.Input, schema.Output], *schema.Input) {
		started = true
	})
	agent.SetEndHook(func(_ context.Context, _ *Agent[schema.Input, schema.Output], _ *schema.Input, out *schema.Output, _ *components.LLMResponse) {
		ended = out.ChatMessage != ""
	})

	output := schema.NewOutput("")
	llmResp := new(components.LLMResponse)
	err := agent.Run(context.Background(), schema.NewInput("Today is 2024-01-01, only response with the date"), output, llmResp)
	require.NoError(t, err)
	require.Equal(t, "2024-01-01", output.ChatMessage)
	require.True(t, started)
	require.True(t, ended)
	require.Equal(t, "chatcmpl-fake", llmResp.ID)
	require.Equal(t, int64(10), llmResp.Usage.InputTokens)
	require.Equal(t, 2, mem.MessageCount())

	reqs := llm.Requests()
	require.NotEmpty(t, reqs)
	req := reqs[0]
	require.Equal(t, "gpt-4o-mini", req.Model)
	msg, ok := findMessage(req, "# IDENTITY and PURPOSE")
	require.True(t, ok)
	require.Equal(t, "system", msg.Role)
	msg, ok = findMessage(req, "Today is 2024-01-01")
	require.True(t, ok)
	require.Equal(t, "user", msg.Role)

	agent.ResetMemory()
	require.Equal(t, 0, mem.MessageCount())
}

func TestAgentRunError(t *testing.T) {
	llm := newFakeLLM(t)
	llm.status = http.StatusInternalServerError
	agent := NewAgent[schema.Input, schema.Output](WithClient(llm.Instructor()), WithModel("m"))
	var hookErr error
	agent.SetErrorHook(func(_ context.Context, _ *Agent[schema.Input, schema.Output], _ *schema.Input, _ *components.LLMResponse, err error) {
		hookErr = err
	})
	err := agent.Run(context.Background(), schema.NewInput("hi"), schema.NewOutput(""), nil)
	require.Error(t, err)
	require.Equal(t, err, hookErr)
}

func TestAgentWithoutClient(t *testing.T) {
	agent := NewAgent[schema.Input, schema.Output]()
	err := agent.Run(context.Background(), schema.NewInput("hi"), schema.NewOutput(""), nil)
	require.EqualError(t, err, "agent has no llm client")
}

func TestAgentRunForChainInvalidInput(t *testing.T) {
	agent := NewAgent[schema.Input, schema.Output]()
	_, err := agent.RunForChain(context.Background(), schema.NewOutput("wrong"), nil)
	require.True(t, errors.Is(err, ErrInvalidInput))
}

func TestAgentSystemPromptContextProviders(t *testing.T) {
	agent := NewAgent[schema.Input, schema.Output](
		WithSystemPromptGenerator(cot.New(cot.WithBackground([]string{"- You are a test."}))),
	)
	agent.RegisterSystemPromptContextProvider(systemprompt.NewStaticContext("Date", "2024-01-01"))
	provider, err := agent.SystemPromptContextProvider("Date")
	require.NoError(t, err)
	require.Equal(t, "2024-01-01", provider.Info())
	require.Contains(t, agent.SystemPrompt(), "## Date\n2024-01-01")

	agent.UnregisterSystemPromptContextProvider("Date")
	_, err = agent.SystemPromptContextProvider("Date")
	require.Error(t, err)
	require.NotContains(t, agent.SystemPrompt(), "EXTRA INFORMATION AND CONTEXT")
}
