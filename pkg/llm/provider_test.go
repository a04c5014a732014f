package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	name string
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{0.1, 0.2, 0.3}
	}
	return result, nil
}

func (m *mockProvider) EmbedSingle(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockProvider) Chat(_ context.Context, _ []Message) (string, error) {
	return "mock response", nil
}

func (m *mockProvider) Generate(_ context.Context, _ string, _ string) (string, error) {
	return "mock generated text", nil
}

func TestRegisterAndNewProvider(t *testing.T) {
	RegisterProvider("test-provider", func(config map[string]any) (Provider, error) {
		name := "test-provider"
		if n, ok := config["name"].(string); ok {
			name = n
		}
		return &mockProvider{name: name}, nil
	})

	p, err := NewProvider("test-provider", map[string]any{"name": "custom-name"})
	require.NoError(t, err)
	assert.Equal(t, "custom-name", p.Name())

	chat, err := NewChatProvider("test-provider", nil)
	require.NoError(t, err)
	out, err := chat.Generate(context.Background(), "hi", "")
	require.NoError(t, err)
	assert.Equal(t, "mock generated text", out)

	assert.Contains(t, ListProviders(), "test-provider")
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewEmbeddingProvider("unknown-provider", nil)
	assert.ErrorContains(t, err, "unknown provider")
}

func TestModelFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "gpt-4o-mini", ModelFromContext(ctx, "gpt-4o-mini"))
	assert.Equal(t, ctx, WithModel(ctx, ""))
	assert.Equal(t, "gpt-4o", ModelFromContext(WithModel(ctx, "gpt-4o"), "gpt-4o-mini"))
}
