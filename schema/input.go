package schema

import "encoding/json"

// Input is the default schema for user messages
type Input struct {
	Base
	// ChatMessage is the chat message from the user
	ChatMessage string `json:"chat_message" jsonschema:"title=chat_message,description=The chat message sent by the user." validate:"required"`
}

// NewInput returns a new Input
func NewInput(msg string) *Input {
	return &Input{ChatMessage: msg}
}

func (s Input) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}
