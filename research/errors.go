package research

import (
	"errors"
	"fmt"
)

// ErrEmptyOutput is the cause of a MalformedOutput PipelineError
var ErrEmptyOutput = errors.New("stage produced no content")

// ConfigError reports an LLM descriptor which cannot be used
type ConfigError struct {
	Provider Provider
	Reason   string
}

func (e *ConfigError) Error() string {
	if e.Provider == "" {
		return "llm config: " + e.Reason
	}
	return fmt.Sprintf("llm config %s: %s", e.Provider, e.Reason)
}

// PipelineErrorKind tells which part of a stage failed
type PipelineErrorKind int

const (
	ToolFailure PipelineErrorKind = iota
	LLMFailure
	MalformedOutput
)

func (k PipelineErrorKind) String() string {
	switch k {
	case ToolFailure:
		return "tool failure"
	case LLMFailure:
		return "llm failure"
	case MalformedOutput:
		return "malformed output"
	default:
		return "unknown failure"
	}
}

// PipelineError is returned by Pipeline.Run
type PipelineError struct {
	Stage Role
	Kind  PipelineErrorKind
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s stage: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
