package schema

import "encoding/json"

// Output is the default schema for assistant messages
type Output struct {
	Base
	// ChatMessage is the chat message exchanged between the user and the assistant
	ChatMessage string `json:"chat_message" jsonschema:"title=chat_message,description=The chat message exchanged between the user and the chat agent. This contains the markdown-enabled response generated by the chat agent." validate:"required"`
}

// NewOutput returns a new Output
func NewOutput(msg string) *Output {
	return &Output{ChatMessage: msg}
}

func (s Output) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}
