package json

import "encoding/json"

// Shared types are aliased from the standard library so values move freely
// between either implementation
type (
	// RawMessage is an alias for encoding/json RawMessage
	RawMessage = json.RawMessage
	// Marshaler is an alias for encoding/json Marshaler
	Marshaler = json.Marshaler
	// Unmarshaler is an alias for encoding/json Unmarshaler
	Unmarshaler = json.Unmarshaler
	// Number is an alias for encoding/json Number
	Number = json.Number
)
