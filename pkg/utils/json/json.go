// Package json 统一项目内的 JSON 编解码，底层使用 sonic。
// sonic 在不支持 JIT 的平台上会自动回退到 encoding/json。
package json

import (
	"io"

	"github.com/bytedance/sonic"
)

var api = sonic.ConfigDefault

// Marshal encodes v.
func Marshal(v any) ([]byte, error) { return api.Marshal(v) }

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error { return api.Unmarshal(data, v) }

// NewDecoder returns a streaming decoder reading from r.
func NewDecoder(r io.Reader) sonic.Decoder { return api.NewDecoder(r) }
