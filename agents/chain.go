package agents

import (
	"context"
	"fmt"

	"github.com/bububa/research-assistant/components"
	"github.com/bububa/research-assistant/schema"
)

// LinkFunc is called with the output of the agent at idx before it is handed
// to the next agent. The returned value becomes the next agent's input.
type LinkFunc func(ctx context.Context, idx int, agent ChainableAgent, out any) (any, error)

// Chain runs agents sequentially, each consuming the previous agent's output
type Chain[I schema.Schema, O schema.Schema] struct {
	agents []ChainableAgent
	link   LinkFunc
	name   string
}

var _ ChainableAgent = (*Chain[schema.Input, schema.Output])(nil)

// NewChain returns a new Chain instance
func NewChain[I schema.Schema, O schema.Schema](agents ...ChainableAgent) *Chain[I, O] {
	return &Chain[I, O]{
		agents: agents,
	}
}

// SetLink sets the function converting outputs into inputs between agents
func (c *Chain[I, O]) SetLink(fn LinkFunc) *Chain[I, O] {
	c.link = fn
	return c
}

func (c *Chain[I, O]) SetName(name string) *Chain[I, O] {
	c.name = name
	return c
}

func (c *Chain[I, O]) Name() string {
	return c.name
}

// Agents returns the agents of the chain in execution order
func (c *Chain[I, O]) Agents() []ChainableAgent {
	return c.agents
}

// Run runs the chat agents with the given user input synchronously.
// Errors are returned as *ChainError.
func (c *Chain[I, O]) Run(ctx context.Context, input *I, output *O) ([]components.LLMResponse, error) {
	l := len(c.agents)
	llmRespList := make([]components.LLMResponse, 0, l)
	var (
		in  any = input
		out any
	)
	for idx, agent := range c.agents {
		if err := ctx.Err(); err != nil {
			return llmRespList, &ChainError{Index: idx, Agent: agent.Name(), Err: err}
		}
		llmResp := new(components.LLMResponse)
		ret, err := agent.RunForChain(ctx, in, llmResp)
		if err != nil {
			return llmRespList, &ChainError{Index: idx, Agent: agent.Name(), Err: err}
		}
		llmRespList = append(llmRespList, *llmResp)
		out = ret
		if idx == l-1 {
			break
		}
		if c.link != nil {
			if ret, err = c.link(ctx, idx, agent, ret); err != nil {
				return llmRespList, &ChainError{Index: idx, Agent: agent.Name(), Err: err}
			}
		}
		in = ret
	}
	outO, ok := out.(*O)
	if !ok {
		return llmRespList, &ChainError{Index: l - 1, Err: fmt.Errorf("%w: %T", ErrInvalidOutput, out)}
	}
	*output = *outO
	return llmRespList, nil
}

// RunForChain runs the chain as a link of an outer chain, usage is summed.
func (c *Chain[I, O]) RunForChain(ctx context.Context, input any, llmResp *components.LLMResponse) (any, error) {
	in, ok := input.(*I)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrInvalidInput, input)
	}
	out := new(O)
	llmRespList, err := c.Run(ctx, in, out)
	if err != nil {
		return nil, err
	}
	if llmResp != nil {
		for _, v := range llmRespList {
			if v.Usage == nil {
				continue
			}
			if llmResp.Usage == nil {
				llmResp.Usage = new(components.LLMUsage)
			}
			llmResp.Usage.Merge(v.Usage)
		}
	}
	return out, nil
}
