package tools

import (
	"context"

	"github.com/bububa/research-assistant/schema"
)

type ITool interface {
	Title() string
	Description() string
}

// Tool is a typed tool
type Tool[I schema.Schema, O schema.Schema] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}

// AnonymousTool is a tool callable with untyped schemas, used by agents
// which only know the tool through its input and output values
type AnonymousTool interface {
	ITool
	RunAnonymous(context.Context, any) (schema.Schema, error)
}
