package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerOptionsFlags(t *testing.T) {
	o := NewServerOptions()
	fss := o.Flags()

	for _, name := range []string{"http.addr", "db.driver", "milvus.collection", "chat.model", "embedding.provider", "workflow.top-k", "search.tavily.api-key", "shutdown-timeout"} {
		found := false
		for _, fs := range fss.FlagSets {
			if fs.Lookup(name) != nil {
				found = true
				break
			}
		}
		assert.True(t, found, name)
	}
}

func TestServerOptionsConfig(t *testing.T) {
	o := NewServerOptions()
	o.ShutdownTimeout = 0
	assert.Error(t, o.Validate())

	o = NewServerOptions()
	cfg, err := o.Config()
	require.NoError(t, err)
	assert.Equal(t, "paperqa-apiserver", cfg.TracingOptions.ServiceName)
	assert.Same(t, o.ChatOptions, cfg.ChatOptions)
	assert.Equal(t, o.ShutdownTimeout, cfg.ShutdownTimeout)
}
