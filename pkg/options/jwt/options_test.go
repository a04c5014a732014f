package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr int
	}{
		{"valid", func(o *Options) {}, 0},
		{"short key", func(o *Options) { o.Key = "short" }, 1},
		{"rsa not supported", func(o *Options) { o.SigningMethod = "RS256" }, 1},
		{"refresh shorter than access", func(o *Options) { o.MaxRefresh = time.Hour }, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions()
			o.Key = strings.Repeat("k", 32)
			tt.mutate(o)
			assert.Len(t, o.Validate(), tt.wantErr)
		})
	}
}

func TestDefaults(t *testing.T) {
	o := NewOptions()
	assert.Equal(t, 3*time.Hour, o.Expired)
	assert.Equal(t, 24*time.Hour, o.MaxRefresh)
	assert.Equal(t, "HS256", o.SigningMethod)
}
