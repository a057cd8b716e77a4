//go:build !sonic || !(amd64 && (linux || windows || darwin))

package json

import "encoding/json"

// Implementation is the JSON library in use
const Implementation = "encoding/json"

var (
	// Marshal is a drop in replacement for encoding/json Marshal
	Marshal = json.Marshal
	// Unmarshal is a drop in replacement for encoding/json Unmarshal
	Unmarshal = json.Unmarshal
	// MarshalIndent is a drop in replacement for encoding/json MarshalIndent
	MarshalIndent = json.MarshalIndent
	// NewEncoder is a drop in replacement for encoding/json NewEncoder
	NewEncoder = json.NewEncoder
	// NewDecoder is a drop in replacement for encoding/json NewDecoder
	NewDecoder = json.NewDecoder
	// Valid is a drop in replacement for encoding/json Valid
	Valid = json.Valid
)
