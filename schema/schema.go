package schema

import "encoding/json"

// Schema is message schema interface
type Schema interface {
	String() string
}

// Stringify renders a schema the way it is sent to a language model.
// String schemas are passed through verbatim, everything else is JSON encoded.
func Stringify(s Schema) string {
	if s == nil {
		return ""
	}
	if v, ok := s.(String); ok {
		return string(v)
	}
	if v, ok := s.(*String); ok && v != nil {
		return string(*v)
	}
	bs, _ := json.Marshal(s)
	return string(bs)
}
