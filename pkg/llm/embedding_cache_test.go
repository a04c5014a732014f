package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedEmbeddingProviderWithoutRedis(t *testing.T) {
	c := NewCachedEmbeddingProvider(&mockProvider{name: "mock"}, nil, nil)

	out, err := c.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	single, err := c.EmbedSingle(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, single)
	assert.Equal(t, "mock-cached", c.Name())
}

func TestCachedEmbeddingKeyIsStable(t *testing.T) {
	c := NewCachedEmbeddingProvider(&mockProvider{}, nil, nil)
	assert.Equal(t, c.cacheKey("milvus"), c.cacheKey("milvus"))
	assert.NotEqual(t, c.cacheKey("milvus"), c.cacheKey("Milvus"))
	assert.Contains(t, c.cacheKey("x"), "paperqa:emb:")
}
