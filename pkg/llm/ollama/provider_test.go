package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaChatAndEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"no"},"done":true}`))
		case "/api/embed":
			_, _ = w.Write([]byte(`{"embeddings":[[0.5,0.5]]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p, err := NewProvider(map[string]any{"base_url": srv.URL, "max_retries": 0})
	require.NoError(t, err)

	out, err := p.Generate(context.Background(), "relevant?", "")
	require.NoError(t, err)
	assert.Equal(t, "no", out)

	vec, err := p.EmbedSingle(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vec)

	_, err = p.Embed(context.Background(), []string{"a", "b"})
	assert.Error(t, err, "embedding count mismatch must fail")
}
