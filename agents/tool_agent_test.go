package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bububa/research-assistant/components"
	"github.com/bububa/research-assistant/components/systemprompt/cot"
	"github.com/bububa/research-assistant/schema"
	"github.com/bububa/research-assistant/tools"
)

type echoTool struct {
	tools.Config
	calls []string
	err   error
}

func (e *echoTool) RunAnonymous(_ context.Context, input any) (schema.Schema, error) {
	in, ok := input.(*schema.Input)
	if !ok {
		return nil, fmt.Errorf("unexpected input %T", input)
	}
	e.calls = append(e.calls, in.ChatMessage)
	if e.err != nil {
		return nil, e.err
	}
	return schema.String("tool says: " + strings.ToUpper(in.ChatMessage)), nil
}

func newEchoTool() *echoTool {
	ret := new(echoTool)
	ret.SetTitle("EchoTool")
	return ret
}

func TestToolAgentRun(t *testing.T) {
	llm := newFakeLLM(t, `{"chat_message":"hello"}`, `{"chat_message":"done"}`)
	tool := newEchoTool()
	agent := NewToolAgent[schema.Input, schema.Input, schema.Output](
		WithClient(llm.Instructor()),
		WithName("echo"),
	).SetTool(tool).
		SetStartSystemPromptGenerator(cot.New(cot.WithBackground([]string{"- plan"}))).
		SetEndSystemPromptGenerator(cot.New(cot.WithBackground([]string{"- answer"})))
	require.Equal(t, "echo", agent.Name())

	output := schema.NewOutput("")
	llmResp := new(components.LLMResponse)
	require.NoError(t, agent.Run(context.Background(), schema.NewInput("say hello"), output, llmResp))
	require.Equal(t, "done", output.ChatMessage)
	require.Equal(t, []string{"hello"}, tool.calls)
	require.Equal(t, int64(20), llmResp.Usage.InputTokens)

	reqs := llm.Requests()
	require.Len(t, reqs, 2)
	_, ok := findMessage(reqs[0], "- plan")
	require.True(t, ok)
	_, ok = findMessage(reqs[1], "- answer")
	require.True(t, ok)
	msg, ok := findMessage(reqs[1], "tool says: HELLO")
	require.True(t, ok)
	require.Equal(t, "system", msg.Role)
}

func TestToolAgentToolError(t *testing.T) {
	llm := newFakeLLM(t, `{"chat_message":"hello"}`)
	tool := newEchoTool()
	tool.err = errors.New("unreachable")
	agent := NewToolAgent[schema.Input, schema.Input, schema.Output](WithClient(llm.Instructor())).SetTool(tool)

	_, err := agent.RunForChain(context.Background(), schema.NewInput("say hello"), nil)
	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	require.Equal(t, "EchoTool", toolErr.Tool)
	require.EqualError(t, err, "tool EchoTool: unreachable")
	require.Len(t, llm.Requests(), 1)
}
