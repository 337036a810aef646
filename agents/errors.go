package agents

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput  = errors.New("invalid agent input schema")
	ErrInvalidOutput = errors.New("invalid agent output schema")
)

// ToolError is returned by a ToolAgent when its tool fails
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// ChainError identifies the link of a Chain which failed
type ChainError struct {
	Index int
	Agent string
	Err   error
}

func (e *ChainError) Error() string {
	name := e.Agent
	if name == "" {
		name = fmt.Sprintf("#%d", e.Index)
	}
	return fmt.Sprintf("agent %s: %v", name, e.Err)
}

func (e *ChainError) Unwrap() error {
	return e.Err
}
