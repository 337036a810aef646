package cot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bububa/research-assistant/components/systemprompt"
)

func TestGenerate(t *testing.T) {
	t.Run("default background", func(t *testing.T) {
		g := New()
		expect := `# IDENTITY and PURPOSE
- This is a conversation with a helpful and friendly AI assistant.

# OUTPUT INSTRUCTIONS
- Always respond using the proper JSON schema.
- Always use the available additional information and context to enhance the response.`
		require.Equal(t, expect, g.Generate())
	})

	t.Run("sections and context providers", func(t *testing.T) {
		g := New(
			WithBackground([]string{"- You are a research analyst."}),
			WithSteps([]string{"- Read the findings."}),
			WithContextProviders(systemprompt.NewStaticContext("Question", "What is Go?")),
		)
		expect := `# IDENTITY and PURPOSE
- You are a research analyst.

# INTERNAL ASSISTANT STEPS
- Read the findings.

# OUTPUT INSTRUCTIONS
- Always respond using the proper JSON schema.
- Always use the available additional information and context to enhance the response.

# EXTRA INFORMATION AND CONTEXT
## Question
What is Go?`
		require.Equal(t, expect, g.Generate())
	})

	t.Run("duplicate and removed providers", func(t *testing.T) {
		g := New()
		g.AddContextProviders(systemprompt.NewStaticContext("A", "1"), systemprompt.NewStaticContext("A", "2"))
		p, err := g.ContextProvider("A")
		require.NoError(t, err)
		require.Equal(t, "1", p.Info())
		g.RemoveContextProviders("A")
		_, err = g.ContextProvider("A")
		require.Error(t, err)
	})
}
