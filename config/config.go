// Package config loads the process configuration from defaults, an optional
// YAML file, a .env file and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bububa/research-assistant/research"
)

const (
	BackendDuckDuckGo = "duckduckgo"
	BackendSearxNG    = "searxng"
)

// LLM holds the connection settings of one provider
type LLM struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type Config struct {
	MaxSearchResults int    `yaml:"max_search_results"`
	SearchTimeout    int    `yaml:"search_timeout"` // seconds
	StageTimeout     int    `yaml:"stage_timeout"`  // seconds
	SearchBackend    string `yaml:"search_backend"`
	SearxNGURL       string `yaml:"searxng_url"`
	SearchRegion     string `yaml:"search_region"`

	LLMProvider    string  `yaml:"llm_provider"`
	LLMTemperature float32 `yaml:"llm_temperature"`
	LLMMaxTokens   int     `yaml:"llm_max_tokens"`
	OpenAI         LLM     `yaml:"openai"`
	Anthropic      LLM     `yaml:"anthropic"`
	Cohere         LLM     `yaml:"cohere"`

	OllamaHost      string `yaml:"ollama_host"`
	OllamaModel     string `yaml:"ollama_model"`
	LocalLLMEnabled bool   `yaml:"local_llm_enabled"`

	MinQueryLength   int    `yaml:"min_query_length"`
	MaxQueryLength   int    `yaml:"max_query_length"`
	ContextMaxTokens int    `yaml:"context_max_tokens"`
	ContextTokenizer string `yaml:"context_tokenizer"`

	Verbose bool `yaml:"verbose"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		MaxSearchResults: research.DefaultMaxResults,
		SearchTimeout:    int(research.DefaultSearchTimeout.Seconds()),
		StageTimeout:     int(research.DefaultStageTimeout.Seconds()),
		SearchBackend:    BackendDuckDuckGo,
		LLMProvider:      string(research.ProviderOpenAI),
		LLMTemperature:   research.DefaultTemperature,
		OpenAI:           LLM{Model: research.DefaultOpenAIModel},
		Anthropic:        LLM{Model: "claude-3-5-haiku-latest"},
		Cohere:           LLM{Model: "command-r"},
		OllamaHost:       research.DefaultOllamaHost,
		OllamaModel:      research.DefaultOllamaModel,
		LocalLLMEnabled:  true,
		MinQueryLength:   research.DefaultMinQueryLength,
		MaxQueryLength:   research.DefaultMaxQueryLength,
		ContextTokenizer: "words",
	}
}

// Load builds the configuration. path is an optional YAML file, the .env
// file of the working directory is loaded when present and never overrides
// variables already set in the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		bs, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(bs, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides the configuration with the variables found by lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*dst = n
	}
	boolean := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*dst = b
	}

	integer("MAX_SEARCH_RESULTS", &c.MaxSearchResults)
	integer("SEARCH_TIMEOUT", &c.SearchTimeout)
	integer("STAGE_TIMEOUT", &c.StageTimeout)
	str("SEARCH_BACKEND", &c.SearchBackend)
	str("SEARXNG_URL", &c.SearxNGURL)
	str("SEARCH_REGION", &c.SearchRegion)

	str("LLM_PROVIDER", &c.LLMProvider)
	if v, ok := lookup("LLM_TEMPERATURE"); ok && strings.TrimSpace(v) != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid LLM_TEMPERATURE: %w", err))
		} else {
			c.LLMTemperature = float32(f)
		}
	}
	integer("LLM_MAX_TOKENS", &c.LLMMaxTokens)
	for prefix, llm := range map[string]*LLM{"OPENAI": &c.OpenAI, "ANTHROPIC": &c.Anthropic, "COHERE": &c.Cohere} {
		str(prefix+"_API_KEY", &llm.APIKey)
		str(prefix+"_API_BASE_URL", &llm.BaseURL)
		str(prefix+"_MODEL", &llm.Model)
	}

	str("OLLAMA_HOST", &c.OllamaHost)
	str("OLLAMA_MODEL", &c.OllamaModel)
	boolean("LOCAL_LLM_ENABLED", &c.LocalLLMEnabled)

	integer("MIN_QUERY_LENGTH", &c.MinQueryLength)
	integer("MAX_QUERY_LENGTH", &c.MaxQueryLength)
	integer("CONTEXT_MAX_TOKENS", &c.ContextMaxTokens)
	str("CONTEXT_TOKENIZER", &c.ContextTokenizer)

	boolean("VERBOSE", &c.Verbose)
	return errors.Join(errs...)
}

// Validate rejects values no component can work with
func (c *Config) Validate() error {
	if c.MaxSearchResults <= 0 {
		return fmt.Errorf("max search results must be positive, got %d", c.MaxSearchResults)
	}
	if c.SearchTimeout <= 0 || c.StageTimeout <= 0 {
		return errors.New("search and stage timeouts must be positive")
	}
	if c.MinQueryLength < 0 || c.MaxQueryLength < 0 {
		return errors.New("query lengths must not be negative")
	}
	if c.MaxQueryLength > 0 && c.MinQueryLength > c.MaxQueryLength {
		return fmt.Errorf("min query length %d exceeds max query length %d", c.MinQueryLength, c.MaxQueryLength)
	}
	if c.ContextMaxTokens < 0 {
		return errors.New("context max tokens must not be negative")
	}
	switch c.SearchBackend {
	case BackendDuckDuckGo:
	case BackendSearxNG:
		if c.SearxNGURL == "" {
			return errors.New("searxng backend requires SEARXNG_URL")
		}
	default:
		return fmt.Errorf("unknown search backend %q", c.SearchBackend)
	}
	switch research.Provider(c.LLMProvider) {
	case research.ProviderOpenAI, research.ProviderAnthropic, research.ProviderCohere:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLMProvider)
	}
	return nil
}
