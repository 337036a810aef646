package agents

import (
	"context"
	"fmt"

	"github.com/bububa/research-assistant/components"
	"github.com/bububa/research-assistant/components/systemprompt"
	"github.com/bububa/research-assistant/schema"
	"github.com/bububa/research-assistant/tools"
)

// ToolAgent represent agent with tool callback.
// The start agent turns the input into the tool input T, the tool runs, and
// the end agent answers with the tool output. Outputs implementing
// systemprompt.ContextProvider go to the end agent's system prompt, anything
// else is added to its history as a tool message.
type ToolAgent[I schema.Schema, T schema.Schema, O schema.Schema] struct {
	start *Agent[I, T]
	end   *Agent[I, O]
	tool  tools.AnonymousTool
	name  string
}

var _ ChainableAgent = (*ToolAgent[schema.Input, schema.Input, schema.Output])(nil)

// NewToolAgent returns a new ToolAgent instance
func NewToolAgent[I schema.Schema, T schema.Schema, O schema.Schema](options ...Option) *ToolAgent[I, T, O] {
	ret := &ToolAgent[I, T, O]{
		start: NewAgent[I, T](options...),
		end:   NewAgent[I, O](options...),
	}
	ret.name = ret.end.Name()
	return ret
}

func (t *ToolAgent[I, T, O]) SetTool(tool tools.AnonymousTool) *ToolAgent[I, T, O] {
	t.tool = tool
	return t
}

// SetStartSystemPromptGenerator sets the prompt used to plan the tool input
func (t *ToolAgent[I, T, O]) SetStartSystemPromptGenerator(g systemprompt.Generator) *ToolAgent[I, T, O] {
	t.start.SetSystemPromptGenerator(g)
	return t
}

// SetEndSystemPromptGenerator sets the prompt used to answer from the tool output
func (t *ToolAgent[I, T, O]) SetEndSystemPromptGenerator(g systemprompt.Generator) *ToolAgent[I, T, O] {
	t.end.SetSystemPromptGenerator(g)
	return t
}

func (t *ToolAgent[I, T, O]) Name() string {
	return t.name
}

func (t *ToolAgent[I, T, O]) SetName(name string) {
	t.name = name
}

func (t *ToolAgent[I, T, O]) ResetMemory() {
	t.start.ResetMemory()
	t.end.ResetMemory()
}

// Run runs the chat agent with the given user input synchronously.
// Tool failures are returned as *ToolError.
func (t *ToolAgent[I, T, O]) Run(ctx context.Context, userInput *I, output *O, llmResp *components.LLMResponse) error {
	toolInput := new(T)
	startResp := new(components.LLMResponse)
	if err := t.start.Run(ctx, userInput, toolInput, startResp); err != nil {
		return err
	}
	if t.tool != nil {
		toolResult, err := t.tool.RunAnonymous(ctx, toolInput)
		if err != nil {
			return &ToolError{Tool: t.tool.Title(), Err: err}
		}
		if provider, ok := toolResult.(systemprompt.ContextProvider); ok {
			t.end.UnregisterSystemPromptContextProvider(provider.Title())
			t.end.RegisterSystemPromptContextProvider(provider)
		} else {
			t.end.NewMessage(components.ToolRole, toolResult)
		}
	}
	if err := t.end.Run(ctx, userInput, output, llmResp); err != nil {
		return err
	}
	if llmResp != nil && startResp.Usage != nil {
		if llmResp.Usage == nil {
			llmResp.Usage = new(components.LLMUsage)
		}
		llmResp.Usage.Merge(startResp.Usage)
	}
	return nil
}

// RunForChain runs the chat agent with the given user input for chain.
func (t *ToolAgent[I, T, O]) RunForChain(ctx context.Context, userInput any, llmResp *components.LLMResponse) (any, error) {
	in, ok := userInput.(*I)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrInvalidInput, userInput)
	}
	out := new(O)
	if err := t.Run(ctx, in, out, llmResp); err != nil {
		return nil, err
	}
	return out, nil
}
