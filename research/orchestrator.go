package research

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bububa/research-assistant/components"
	"github.com/bububa/research-assistant/tools/search"
)

const (
	// InvalidQueryPrefix starts every report of a rejected query
	InvalidQueryPrefix = "Invalid query: "
	// SearchErrorPrefix starts the report of a failed fallback search
	SearchErrorPrefix = "Search error: "
)

const (
	DefaultMaxResults    = 5
	DefaultSearchTimeout = 30 * time.Second
	DefaultStageTimeout  = 120 * time.Second
)

// Config is the read-only configuration of an Orchestrator
type Config struct {
	Logger *slog.Logger
	// Searcher is used by the searcher stage and by the fallback search
	Searcher search.Provider
	// SearchBackend names the Searcher in capability reports
	SearchBackend string
	// Pipelines builds the agent pipeline, defaults to DefaultPipelineBuilder
	Pipelines PipelineBuilder
	// Configured is the credentialed LLM, the stage is skipped when nil or
	// without api key
	Configured *LLMDescriptor
	// Local is the local LLM, the stage is skipped when nil
	Local *LLMDescriptor
	Roles Roles

	MaxResults     int
	SearchTimeout  time.Duration
	StageTimeout   time.Duration
	MinQueryLength int
	MaxQueryLength int
	ContextBudget  *components.TokenBudget
}

// Validate checks the config and fills unset values with defaults
func (c *Config) Validate() error {
	if c.Searcher == nil {
		return errors.New("search provider is required")
	}
	if c.MaxResults < 0 || c.SearchTimeout < 0 || c.StageTimeout < 0 {
		return errors.New("limits and timeouts must not be negative")
	}
	if c.MaxQueryLength > 0 && c.MinQueryLength > c.MaxQueryLength {
		return fmt.Errorf("min query length %d exceeds max query length %d", c.MinQueryLength, c.MaxQueryLength)
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Pipelines == nil {
		c.Pipelines = DefaultPipelineBuilder
	}
	if c.Roles == (Roles{}) {
		c.Roles = DefaultRoles()
	}
	if c.SearchBackend == "" {
		c.SearchBackend = "web"
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.SearchTimeout == 0 {
		c.SearchTimeout = DefaultSearchTimeout
	}
	if c.StageTimeout == 0 {
		c.StageTimeout = DefaultStageTimeout
	}
	if c.MinQueryLength == 0 {
		c.MinQueryLength = DefaultMinQueryLength
	}
	if c.MaxQueryLength == 0 {
		c.MaxQueryLength = DefaultMaxQueryLength
	}
	return nil
}

// Orchestrator answers research queries, falling back from the agent
// pipeline to a plain web search. It is safe for concurrent use, every call
// builds its own pipeline.
type Orchestrator struct {
	log       *slog.Logger
	cfg       Config
	validator *Validator
	counters  *counters
}

func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{
		log:       cfg.Logger,
		cfg:       cfg,
		validator: NewValidator(cfg.MinQueryLength, cfg.MaxQueryLength),
		counters:  new(counters),
	}, nil
}

// Research returns a report for raw. It never fails, errors are rendered as
// reports starting with InvalidQueryPrefix or SearchErrorPrefix.
func (o *Orchestrator) Research(ctx context.Context, raw string) string {
	log := o.log.With("run_id", uuid.NewString())
	o.counters.queries.Inc()
	q, err := o.validate(raw)
	if err != nil {
		log.Info("research: invalid query", "error", err)
		return InvalidQueryPrefix + err.Error()
	}
	log = log.With("query", q.String())
	log.Info("research: started")

	for _, stage := range []Stage{StageConfiguredLLM, StageLocalLLM} {
		desc := o.descriptor(stage)
		if desc == nil {
			log.Debug("research: stage skipped", "stage", stage)
			o.counters.skip(stage)
			continue
		}
		outcome := o.attempt(ctx, stage, func(ctx context.Context) Outcome {
			return o.runPipeline(ctx, log, stage, q, *desc)
		})
		if outcome.OK() {
			log.Info("research: done", "stage", stage)
			return outcome.Report
		}
		log.Warn("research: stage failed", "stage", stage, "error", outcome.Err)
	}

	log.Info("research: falling back to search")
	outcome := o.attempt(ctx, StageFallbackSearch, func(ctx context.Context) Outcome {
		return o.fallbackSearch(ctx, q)
	})
	if outcome.OK() {
		log.Info("research: done", "stage", StageFallbackSearch)
		return outcome.Report
	}
	log.Error("research: search failed", "error", outcome.Err)
	return SearchErrorPrefix + outcome.Err.Error()
}

// QuickSearch skips the agent pipeline and returns the formatted search
// results for raw
func (o *Orchestrator) QuickSearch(ctx context.Context, raw string) string {
	log := o.log.With("run_id", uuid.NewString())
	o.counters.queries.Inc()
	q, err := o.validate(raw)
	if err != nil {
		log.Info("research: invalid query", "error", err)
		return InvalidQueryPrefix + err.Error()
	}
	outcome := o.attempt(ctx, StageFallbackSearch, func(ctx context.Context) Outcome {
		return o.fallbackSearch(ctx, q)
	})
	if outcome.OK() {
		return outcome.Report
	}
	log.Error("research: quick search failed", "query", q.String(), "error", outcome.Err)
	return SearchErrorPrefix + outcome.Err.Error()
}

// Stats returns a snapshot of the stage counters
func (o *Orchestrator) Stats() Stats {
	return o.counters.snapshot()
}

func (o *Orchestrator) validate(raw string) (Query, error) {
	q, err := o.validator.Validate(raw)
	if err != nil {
		o.counters.invalid.Inc()
		o.counters.record(Failure(StageValidate, err))
		return q, err
	}
	o.counters.record(Success(StageValidate, q.String()))
	return q, nil
}

func (o *Orchestrator) descriptor(stage Stage) *LLMDescriptor {
	switch stage {
	case StageConfiguredLLM:
		if d := o.cfg.Configured; d != nil && d.HasCredential() {
			return d
		}
	case StageLocalLLM:
		return o.cfg.Local
	}
	return nil
}

// attempt runs fn under the stage timeout and converts panics into failures
func (o *Orchestrator) attempt(ctx context.Context, stage Stage, fn func(context.Context) Outcome) (outcome Outcome) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.StageTimeout)
	defer cancel()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			outcome = Failure(stage, fmt.Errorf("panic: %v", r))
		}
		if outcome.Err == nil && !outcome.OK() {
			outcome.Err = ErrEmptyOutput
		}
		StageDuration.WithLabelValues(stage.String()).Observe(time.Since(start).Seconds())
		o.counters.record(outcome)
	}()
	return fn(ctx)
}

func (o *Orchestrator) runPipeline(ctx context.Context, log *slog.Logger, stage Stage, q Query, desc LLMDescriptor) Outcome {
	pipeline, err := o.cfg.Pipelines(PipelineConfig{
		Query:         q,
		LLM:           desc,
		Roles:         o.cfg.Roles,
		Searcher:      o.cfg.Searcher,
		MaxResults:    o.cfg.MaxResults,
		SearchTimeout: o.cfg.SearchTimeout,
		ContextBudget: o.cfg.ContextBudget,
		Logger:        log.With("stage", stage),
	})
	if err != nil {
		return Failure(stage, err)
	}
	log.Info("research: running pipeline", "stage", stage, "provider", desc.Provider, "model", desc.Model)
	report, err := pipeline.Run(ctx)
	if err != nil {
		return Failure(stage, err)
	}
	return Success(stage, report)
}

func (o *Orchestrator) fallbackSearch(ctx context.Context, q Query) Outcome {
	searchCtx, cancel := context.WithTimeout(ctx, o.cfg.SearchTimeout)
	defer cancel()
	results, err := o.cfg.Searcher.Search(searchCtx, q.String(), o.cfg.MaxResults)
	if err != nil {
		return Failure(StageFallbackSearch, err)
	}
	if len(results) > o.cfg.MaxResults {
		results = results[:o.cfg.MaxResults]
	}
	return Success(StageFallbackSearch, Format(q, results))
}
