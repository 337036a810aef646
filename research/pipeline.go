package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/bububa/research-assistant/agents"
	"github.com/bububa/research-assistant/components"
	"github.com/bububa/research-assistant/components/systemprompt/cot"
	"github.com/bububa/research-assistant/schema"
	"github.com/bububa/research-assistant/tools/search"
)

// StageInput is the user message of every pipeline stage
type StageInput struct {
	schema.Base
	// Query is the research question
	Query string `json:"query" jsonschema:"title=query,description=The research question." validate:"required"`
	// Context is the output of the previous stage
	Context string `json:"context,omitempty" jsonschema:"title=context,description=The output of the previous research stage."`
}

func (s StageInput) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// StageOutput is the answer of every pipeline stage
type StageOutput struct {
	schema.Base
	// Content is the markdown text produced by the stage
	Content string `json:"content" jsonschema:"title=content,description=The markdown text produced by this research stage."`
}

func (s StageOutput) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// PipelineConfig is everything needed to build a Pipeline. It is rebuilt
// for every research call.
type PipelineConfig struct {
	Query    Query
	LLM      LLMDescriptor
	Roles    Roles
	Searcher search.Provider
	// MaxResults caps the results of a searcher tool call
	MaxResults int
	// SearchTimeout bounds every search issued by the searcher
	SearchTimeout time.Duration
	// ContextBudget truncates the context handed from one stage to the next
	ContextBudget *components.TokenBudget
	Logger        *slog.Logger
}

// Runner runs a built pipeline
type Runner interface {
	Run(ctx context.Context) (string, error)
}

// PipelineBuilder builds a Runner, BuildPipeline is the default
type PipelineBuilder func(cfg PipelineConfig) (Runner, error)

// Pipeline is the searcher, analyst and writer chain for one query
type Pipeline struct {
	cfg   PipelineConfig
	tool  *search.Tool
	chain *agents.Chain[StageInput, StageOutput]
	usage components.LLMUsage
}

var _ Runner = (*Pipeline)(nil)

// DefaultPipelineBuilder wraps BuildPipeline as a PipelineBuilder
func DefaultPipelineBuilder(cfg PipelineConfig) (Runner, error) {
	return BuildPipeline(cfg)
}

// BuildPipeline validates the descriptor and assembles the three stages.
// Descriptor problems are returned as *ConfigError.
func BuildPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Searcher == nil {
		return nil, &ConfigError{Provider: cfg.LLM.Provider, Reason: "no search provider"}
	}
	clt, err := NewInstructor(cfg.LLM)
	if err != nil {
		return nil, err
	}
	if cfg.Roles == (Roles{}) {
		cfg.Roles = DefaultRoles()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts := []agents.Option{
		agents.WithClient(clt),
		agents.WithModel(cfg.LLM.Model),
		agents.WithTemperature(cfg.LLM.Temperature),
		agents.WithMaxTokens(cfg.LLM.MaxTokens),
	}
	p := &Pipeline{
		cfg: cfg,
		tool: search.NewTool(cfg.Searcher,
			search.WithMaxResults(cfg.MaxResults),
			search.WithTimeout(cfg.SearchTimeout),
		),
	}

	searcherSpec := cfg.Roles.Spec(Searcher)
	searcher := agents.NewToolAgent[StageInput, search.Input, StageOutput](
		append(opts, agents.WithName(Searcher.String()))...,
	).SetTool(p.tool).
		SetStartSystemPromptGenerator(cot.New(
			cot.WithBackground(searcherSpec.background()),
			cot.WithSteps([]string{
				"- Read the research query.",
				"- Plan one to three short keyword web search queries which together cover it.",
			}),
			cot.WithOutputInstructs([]string{"- Respond with the search queries only."}),
		)).
		SetEndSystemPromptGenerator(cot.New(
			cot.WithBackground(searcherSpec.background()),
			cot.WithSteps([]string{
				"- " + searcherSpec.Task,
				"- Use only the web search results given in the context.",
			}),
			cot.WithOutputInstructs([]string{
				"- Expected output: " + searcherSpec.ExpectedOutput,
				"- Keep the source url of every finding.",
			}),
		))

	chain := agents.NewChain[StageInput, StageOutput](
		searcher,
		newStageAgent(cfg.Roles.Spec(Analyst), opts),
		newStageAgent(cfg.Roles.Spec(Writer), opts),
	)
	p.chain = chain.SetLink(p.link).SetName("research")
	return p, nil
}

func newStageAgent(spec RoleSpec, opts []agents.Option) *agents.Agent[StageInput, StageOutput] {
	return agents.NewAgent[StageInput, StageOutput](
		append(opts,
			agents.WithName(spec.Role.String()),
			agents.WithSystemPromptGenerator(cot.New(
				cot.WithBackground(spec.background()),
				cot.WithSteps([]string{
					"- " + spec.Task,
					"- The context field holds the output of the previous stage, it is your only source.",
				}),
				cot.WithOutputInstructs([]string{"- Expected output: " + spec.ExpectedOutput}),
			)),
		)...,
	)
}

// link hands the output of one stage to the next as its context
func (p *Pipeline) link(ctx context.Context, idx int, agent agents.ChainableAgent, out any) (any, error) {
	output, ok := out.(*StageOutput)
	if !ok {
		return nil, fmt.Errorf("%w: %T", agents.ErrInvalidOutput, out)
	}
	content := strings.TrimSpace(output.Content)
	if content == "" {
		return nil, ErrEmptyOutput
	}
	truncated := p.cfg.ContextBudget.Apply(content)
	p.cfg.Logger.DebugContext(ctx, "pipeline: stage done",
		"stage", agent.Name(),
		"chars", len(content),
		"truncated", len(truncated) < len(content),
	)
	return &StageInput{
		Query:   p.cfg.Query.String(),
		Context: truncated,
	}, nil
}

// Run executes the stages in order and returns the writer's report.
// Failures are returned as *PipelineError.
func (p *Pipeline) Run(ctx context.Context) (string, error) {
	input := &StageInput{Query: p.cfg.Query.String()}
	output := new(StageOutput)
	llmResps, err := p.chain.Run(ctx, input, output)
	for _, v := range llmResps {
		p.usage.Merge(v.Usage)
	}
	if err != nil {
		return "", classify(err)
	}
	report := strings.TrimSpace(output.Content)
	if report == "" {
		return "", &PipelineError{Stage: Writer, Kind: MalformedOutput, Err: ErrEmptyOutput}
	}
	return report, nil
}

// Usage returns the tokens consumed by the last Run
func (p *Pipeline) Usage() components.LLMUsage {
	return p.usage
}

// SearchCalls returns the number of searches issued by the searcher
func (p *Pipeline) SearchCalls() int64 {
	return p.tool.Calls()
}

func classify(err error) *PipelineError {
	ret := &PipelineError{Kind: LLMFailure, Err: err}
	var chainErr *agents.ChainError
	if errors.As(err, &chainErr) && chainErr.Index >= int(Searcher) && chainErr.Index <= int(Writer) {
		ret.Stage = Role(chainErr.Index)
		ret.Err = chainErr.Err
	}
	var toolErr *agents.ToolError
	switch {
	case errors.As(err, &toolErr):
		ret.Kind = ToolFailure
	case errors.Is(err, ErrEmptyOutput), errors.Is(err, agents.ErrInvalidOutput), errors.Is(err, agents.ErrInvalidInput):
		ret.Kind = MalformedOutput
	}
	return ret
}
