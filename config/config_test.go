package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bububa/research-assistant/research"
	"github.com/bububa/research-assistant/tools/search"
)

func lookupMap(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 5, cfg.MaxSearchResults)
	require.Equal(t, 30, cfg.SearchTimeout)
	require.Equal(t, BackendDuckDuckGo, cfg.SearchBackend)
	require.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.Model)
	require.Equal(t, "http://localhost:11434", cfg.OllamaHost)
	require.Equal(t, "llama2", cfg.OllamaModel)
	require.True(t, cfg.LocalLLMEnabled)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(lookupMap(map[string]string{
		"MAX_SEARCH_RESULTS": "8",
		"SEARCH_TIMEOUT":     "10",
		"SEARCH_BACKEND":     "searxng",
		"SEARXNG_URL":        "http://searx.local",
		"LLM_PROVIDER":       "anthropic",
		"ANTHROPIC_API_KEY":  " sk-ant ",
		"ANTHROPIC_MODEL":    "claude-test",
		"LLM_TEMPERATURE":    "0.5",
		"OLLAMA_MODEL":       "mistral",
		"LOCAL_LLM_ENABLED":  "false",
		"CONTEXT_MAX_TOKENS": "200",
		"OPENAI_API_KEY":     "",
	}))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, 8, cfg.MaxSearchResults)
	require.Equal(t, 10, cfg.SearchTimeout)
	require.Equal(t, BackendSearxNG, cfg.SearchBackend)
	require.Equal(t, "sk-ant", cfg.Anthropic.APIKey)
	require.Equal(t, "claude-test", cfg.Anthropic.Model)
	require.InDelta(t, 0.5, cfg.LLMTemperature, 0.0001)
	require.Equal(t, "mistral", cfg.OllamaModel)
	require.False(t, cfg.LocalLLMEnabled)
	require.Equal(t, 200, cfg.ContextMaxTokens)
	require.Empty(t, cfg.OpenAI.APIKey)
}

func TestApplyEnvInvalid(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(lookupMap(map[string]string{
		"MAX_SEARCH_RESULTS": "many",
		"LOCAL_LLM_ENABLED":  "perhaps",
	}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "MAX_SEARCH_RESULTS")
	require.Contains(t, err.Error(), "LOCAL_LLM_ENABLED")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{name: "zero results", modify: func(c *Config) { c.MaxSearchResults = 0 }, errMsg: "max search results"},
		{name: "zero timeout", modify: func(c *Config) { c.StageTimeout = 0 }, errMsg: "timeouts"},
		{name: "min over max", modify: func(c *Config) { c.MinQueryLength = 10; c.MaxQueryLength = 5 }, errMsg: "exceeds"},
		{name: "searxng without url", modify: func(c *Config) { c.SearchBackend = BackendSearxNG }, errMsg: "SEARXNG_URL"},
		{name: "unknown backend", modify: func(c *Config) { c.SearchBackend = "bing" }, errMsg: "unknown search backend"},
		{name: "unknown provider", modify: func(c *Config) { c.LLMProvider = "ollama" }, errMsg: "unknown llm provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_search_results: 3
llm_provider: cohere
cohere:
  api_key: from-file
  model: command-light
local_llm_enabled: false
`), 0o600))
	t.Chdir(dir)
	t.Setenv("MAX_SEARCH_RESULTS", "4")
	for _, key := range []string{"LLM_PROVIDER", "COHERE_API_KEY", "COHERE_MODEL", "LOCAL_LLM_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.MaxSearchResults)
	require.Equal(t, "cohere", cfg.LLMProvider)
	require.Equal(t, "from-file", cfg.Cohere.APIKey)
	require.Equal(t, "command-light", cfg.Cohere.Model)
	require.False(t, cfg.LocalLLMEnabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestConfiguredLLM(t *testing.T) {
	cfg := Default()
	d := cfg.ConfiguredLLM()
	require.Equal(t, research.ProviderOpenAI, d.Provider)
	require.Equal(t, "gpt-3.5-turbo", d.Model)
	require.False(t, d.HasCredential())

	cfg.OpenAI.APIKey = "sk-test"
	cfg.LLMMaxTokens = 512
	d = cfg.ConfiguredLLM()
	require.True(t, d.HasCredential())
	require.Equal(t, 512, d.MaxTokens)
	require.NoError(t, d.Validate())
}

func TestLocalLLM(t *testing.T) {
	cfg := Default()
	d := cfg.LocalLLM()
	require.NotNil(t, d)
	require.Equal(t, research.ProviderOllama, d.Provider)
	require.Equal(t, "llama2", d.Model)
	require.NoError(t, d.Validate())

	cfg.LocalLLMEnabled = false
	require.Nil(t, cfg.LocalLLM())
}

func TestSearchProvider(t *testing.T) {
	cfg := Default()
	require.IsType(t, &search.DuckDuckGo{}, cfg.SearchProvider())
	cfg.SearchBackend = BackendSearxNG
	cfg.SearxNGURL = "http://searx.local"
	require.IsType(t, &search.SearxNG{}, cfg.SearchProvider())
}

func TestResearchConfig(t *testing.T) {
	cfg := Default()
	cfg.ContextMaxTokens = 100
	rc, err := cfg.ResearchConfig(nil)
	require.NoError(t, err)
	require.NotNil(t, rc.Searcher)
	require.NotNil(t, rc.ContextBudget)
	require.Equal(t, 100, rc.ContextBudget.MaxTokens)
	require.Equal(t, 30*time.Second, rc.SearchTimeout)
	require.Equal(t, 120*time.Second, rc.StageTimeout)
	require.NotNil(t, rc.Local)

	_, err = research.NewOrchestrator(rc)
	require.NoError(t, err)
}
