package config

import (
	"log/slog"
	"time"

	"github.com/bububa/research-assistant/components"
	"github.com/bububa/research-assistant/research"
	"github.com/bububa/research-assistant/tools/search"
)

// SearchProvider returns the configured web search backend
func (c Config) SearchProvider() search.Provider {
	if c.SearchBackend == BackendSearxNG {
		return search.NewSearxNG(c.SearxNGURL)
	}
	opts := make([]search.DuckDuckGoOption, 0, 1)
	if c.SearchRegion != "" {
		opts = append(opts, search.WithRegion(c.SearchRegion))
	}
	return search.NewDuckDuckGo(opts...)
}

// ConfiguredLLM returns the descriptor of LLM_PROVIDER. The descriptor is
// returned without api key when none is set, the research stage using it is
// then skipped.
func (c Config) ConfiguredLLM() *research.LLMDescriptor {
	provider := research.Provider(c.LLMProvider)
	var creds LLM
	switch provider {
	case research.ProviderAnthropic:
		creds = c.Anthropic
	case research.ProviderCohere:
		creds = c.Cohere
	default:
		creds = c.OpenAI
	}
	return &research.LLMDescriptor{
		Provider:    provider,
		APIKey:      creds.APIKey,
		BaseURL:     creds.BaseURL,
		Model:       creds.Model,
		Temperature: c.LLMTemperature,
		MaxTokens:   c.LLMMaxTokens,
	}
}

// LocalLLM returns the Ollama descriptor, nil when the local stage is disabled
func (c Config) LocalLLM() *research.LLMDescriptor {
	if !c.LocalLLMEnabled {
		return nil
	}
	d := research.OllamaDescriptor(c.OllamaHost, c.OllamaModel)
	d.Temperature = c.LLMTemperature
	d.MaxTokens = c.LLMMaxTokens
	return d
}

// ContextBudget returns the budget applied between stages, nil when
// CONTEXT_MAX_TOKENS is unset
func (c Config) ContextBudget() (*components.TokenBudget, error) {
	if c.ContextMaxTokens <= 0 {
		return nil, nil
	}
	return components.NewTokenBudget(c.ContextTokenizer, c.ContextMaxTokens)
}

// ResearchConfig assembles the orchestrator configuration
func (c Config) ResearchConfig(logger *slog.Logger) (research.Config, error) {
	budget, err := c.ContextBudget()
	if err != nil {
		return research.Config{}, err
	}
	return research.Config{
		Logger:         logger,
		Searcher:       c.SearchProvider(),
		SearchBackend:  c.SearchBackend,
		Configured:     c.ConfiguredLLM(),
		Local:          c.LocalLLM(),
		MaxResults:     c.MaxSearchResults,
		SearchTimeout:  time.Duration(c.SearchTimeout) * time.Second,
		StageTimeout:   time.Duration(c.StageTimeout) * time.Second,
		MinQueryLength: c.MinQueryLength,
		MaxQueryLength: c.MaxQueryLength,
		ContextBudget:  budget,
	}, nil
}
