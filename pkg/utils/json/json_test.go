package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Question string   `json:"question"`
	Tools    []string `json:"tools_used"`
}

func TestEncodeDecode(t *testing.T) {
	in := payload{Question: "what is new?", Tools: []string{"vector_store_retrieval", "llm_generation"}}

	data, err := Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tools_used"`)

	var out payload
	require.NoError(t, NewDecoder(bytes.NewReader(data)).Decode(&out))
	assert.Equal(t, in, out)
}
