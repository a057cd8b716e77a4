//go:build sonic && (linux || windows || darwin) && amd64

package json

import "github.com/bytedance/sonic"

// Implementation is the JSON library in use
const Implementation = "bytedance/sonic"

var (
	// Marshal is a drop in replacement for encoding/json Marshal
	Marshal = sonic.ConfigStd.Marshal
	// Unmarshal is a drop in replacement for encoding/json Unmarshal
	Unmarshal = sonic.ConfigStd.Unmarshal
	// MarshalIndent is a drop in replacement for encoding/json MarshalIndent
	MarshalIndent = sonic.ConfigStd.MarshalIndent
	// NewEncoder is a drop in replacement for encoding/json NewEncoder
	NewEncoder = sonic.ConfigStd.NewEncoder
	// NewDecoder is a drop in replacement for encoding/json NewDecoder
	NewDecoder = sonic.ConfigStd.NewDecoder
	// Valid is a drop in replacement for encoding/json Valid
	Valid = sonic.ConfigStd.Valid
)
