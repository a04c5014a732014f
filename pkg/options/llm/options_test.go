package llm

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderOptionsFlagsArePrefixed(t *testing.T) {
	o := NewChatOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs, "chat")

	require.NoError(t, fs.Parse([]string{"--chat.provider=ollama", "--chat.model=llama3.1:8b", "--chat.timeout=5s"}))
	assert.Equal(t, "ollama", o.Provider)
	assert.Equal(t, "llama3.1:8b", o.Model)
	assert.Equal(t, 5*time.Second, o.Timeout)
	assert.Empty(t, o.Validate())
}

func TestProviderOptionsValidate(t *testing.T) {
	o := NewEmbeddingOptions()
	errs := o.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "api-key")

	o.APIKey = "sk-test"
	assert.Empty(t, o.Validate())
	assert.Equal(t, "sk-test", o.ToConfigMap()["api_key"])
}
