package components

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts and truncates text by tokens
type TokenCounter interface {
	Count(text string) int
	// Truncate returns the prefix of text that fits in maxTokens
	Truncate(text string, maxTokens int) string
}

// WordTokenCounter approximates tokens with whitespace separated words.
type WordTokenCounter struct{}

func (WordTokenCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func (WordTokenCounter) Truncate(text string, maxTokens int) string {
	fields := strings.Fields(text)
	if len(fields) <= maxTokens {
		return text
	}
	return strings.Join(fields[:maxTokens], " ")
}

// TikTokenCounter counts tokens with an OpenAI tiktoken encoding.
type TikTokenCounter struct {
	tke *tiktoken.Tiktoken
}

// NewTikTokenCounter creates a new TikTokenCounter using the specified encoding,
// e.g. "cl100k_base" or "o200k_base".
func NewTikTokenCounter(encoding string) (*TikTokenCounter, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}
	return &TikTokenCounter{tke: tke}, nil
}

func (c *TikTokenCounter) Count(text string) int {
	return len(c.tke.Encode(text, nil, nil))
}

func (c *TikTokenCounter) Truncate(text string, maxTokens int) string {
	tokens := c.tke.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return c.tke.Decode(tokens[:maxTokens])
}

// TokenBudget bounds the context handed from one agent to the next.
// A nil budget or MaxTokens <= 0 leaves text untouched.
type TokenBudget struct {
	Counter   TokenCounter
	MaxTokens int
}

// NewTokenBudget resolves tokenizer to a counter. "words" or an empty
// name selects WordTokenCounter, anything else is a tiktoken encoding.
func NewTokenBudget(tokenizer string, maxTokens int) (*TokenBudget, error) {
	if maxTokens <= 0 {
		return nil, nil
	}
	var counter TokenCounter = WordTokenCounter{}
	if tokenizer != "" && tokenizer != "words" {
		c, err := NewTikTokenCounter(tokenizer)
		if err != nil {
			return nil, err
		}
		counter = c
	}
	return &TokenBudget{Counter: counter, MaxTokens: maxTokens}, nil
}

func (b *TokenBudget) Apply(text string) string {
	if b == nil || b.MaxTokens <= 0 || b.Counter == nil {
		return text
	}
	return b.Counter.Truncate(text, b.MaxTokens)
}
