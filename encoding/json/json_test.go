package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Instrument string     `json:"instrument"`
	Quantity   int64      `json:"quantity"`
	Extra      RawMessage `json:"extra,omitempty"`
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	b, err := Marshal(testPayload{Instrument: "BGI", Quantity: -5, Extra: RawMessage(`{"a":1}`)})
	require.NoError(t, err)
	assert.True(t, Valid(b))
	assert.JSONEq(t, `{"instrument":"BGI","quantity":-5,"extra":{"a":1}}`, string(b))

	var out testPayload
	require.NoError(t, Unmarshal(b, &out))
	assert.Equal(t, "BGI", out.Instrument)
	assert.Equal(t, int64(-5), out.Quantity)
	assert.False(t, Valid([]byte(`{"instrument":`)))
}

func TestEncoderDecoder(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(testPayload{Instrument: "CCM", Quantity: 3}))
	var out testPayload
	require.NoError(t, NewDecoder(&buf).Decode(&out))
	assert.Equal(t, "CCM", out.Instrument)
	assert.NotEmpty(t, Implementation)
}
