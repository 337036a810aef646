package research

import (
	"strings"

	"github.com/bububa/instructor-go/pkg/instructor"
	cohereClient "github.com/cohere-ai/cohere-go/v2/client"
	cohereOption "github.com/cohere-ai/cohere-go/v2/option"
	"github.com/go-playground/validator/v10"
	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"
)

// Provider names an LLM backend
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderCohere    Provider = "cohere"
	// ProviderOllama is a local model served through the OpenAI compatible api
	ProviderOllama Provider = "ollama"
)

const (
	DefaultOpenAIModel = "gpt-3.5-turbo"
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultOllamaModel = "llama2"
	DefaultTemperature = 0.1
)

// LLMDescriptor identifies the LLM backend a pipeline runs on
type LLMDescriptor struct {
	Provider    Provider `json:"provider" yaml:"provider" validate:"required,oneof=openai anthropic cohere ollama"`
	APIKey      string   `json:"-" yaml:"-"`
	BaseURL     string   `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	Model       string   `json:"model" yaml:"model" validate:"required"`
	Temperature float32  `json:"temperature,omitempty" yaml:"temperature,omitempty" validate:"gte=0,lte=2"`
	MaxTokens   int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" validate:"gte=0"`
}

// OllamaDescriptor returns the descriptor of a local Ollama model
func OllamaDescriptor(host string, model string) *LLMDescriptor {
	if host == "" {
		host = DefaultOllamaHost
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return &LLMDescriptor{
		Provider:    ProviderOllama,
		BaseURL:     host,
		Model:       model,
		Temperature: DefaultTemperature,
	}
}

// HasCredential reports whether an api key is present
func (d LLMDescriptor) HasCredential() bool {
	return strings.TrimSpace(d.APIKey) != ""
}

var descriptorValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate returns a *ConfigError when the descriptor cannot be used
func (d LLMDescriptor) Validate() error {
	if err := descriptorValidator.Struct(d); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ConfigError{Provider: d.Provider, Reason: "invalid " + strings.ToLower(fe.Field()) + " (" + fe.Tag() + ")"}
		}
		return &ConfigError{Provider: d.Provider, Reason: err.Error()}
	}
	switch d.Provider {
	case ProviderOllama:
		if d.BaseURL == "" {
			return &ConfigError{Provider: d.Provider, Reason: "missing host"}
		}
	default:
		if !d.HasCredential() {
			return &ConfigError{Provider: d.Provider, Reason: "missing api key"}
		}
	}
	return nil
}

// NewInstructor validates the descriptor and returns a structured output
// client for it
func NewInstructor(d LLMDescriptor) (instructor.Instructor, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	switch d.Provider {
	case ProviderAnthropic:
		opts := make([]anthropic.ClientOption, 0, 1)
		if d.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(d.BaseURL))
		}
		clt := anthropic.NewClient(d.APIKey, opts...)
		return instructor.FromAnthropic(clt, instructor.WithMode(instructor.ModeJSON), instructor.WithMaxRetries(3), instructor.WithValidation()), nil
	case ProviderCohere:
		opts := make([]cohereOption.RequestOption, 0, 2)
		opts = append(opts, cohereOption.WithToken(d.APIKey))
		if d.BaseURL != "" {
			opts = append(opts, cohereOption.WithBaseURL(d.BaseURL))
		}
		clt := cohereClient.NewClient(opts...)
		return instructor.FromCohere(clt, instructor.WithMode(instructor.ModeJSON), instructor.WithMaxRetries(3), instructor.WithValidation()), nil
	case ProviderOllama:
		cfg := openai.DefaultConfig("ollama")
		cfg.BaseURL = strings.TrimRight(d.BaseURL, "/") + "/v1"
		clt := openai.NewClientWithConfig(cfg)
		return instructor.FromOpenAI(clt, instructor.WithMode(instructor.ModeJSON), instructor.WithMaxRetries(3), instructor.WithValidation()), nil
	default:
		cfg := openai.DefaultConfig(d.APIKey)
		if d.BaseURL != "" {
			cfg.BaseURL = d.BaseURL
		}
		clt := openai.NewClientWithConfig(cfg)
		return instructor.FromOpenAI(clt, instructor.WithMode(instructor.ModeJSON), instructor.WithMaxRetries(3), instructor.WithValidation()), nil
	}
}
