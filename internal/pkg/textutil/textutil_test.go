package textutil_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/kart-io/paperqa/internal/pkg/textutil"
)

func TestHashBytes(t *testing.T) {
	// 相同输入应产生相同输出
	assert.Equal(t, textutil.HashBytes([]byte("test")), textutil.HashBytes([]byte("test")))
	assert.NotEqual(t, textutil.HashBytes([]byte("a")), textutil.HashBytes([]byte("b")))
	assert.Len(t, textutil.HashBytes(nil), 64)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "你好", textutil.TruncateString("你好世界", 2))
	assert.Equal(t, "abc", textutil.TruncateString("abc", 10))
}

func TestNormalizeSpace(t *testing.T) {
	in := "  first   line\nsame para \r\n\r\n\n\n second\tpara  "
	assert.Equal(t, "first line same para\n\nsecond para", textutil.NormalizeSpace(in))
	assert.Empty(t, textutil.NormalizeSpace(" \n\n "))
}

func TestSplitIntoChunks(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		size      int
		overlap   int
		wantCount int
	}{
		{"空文本", "   ", 10, 2, 0},
		{"无效大小", "abc", 0, 0, 0},
		{"短文本", "short text", 100, 10, 1},
		{"无空白", strings.Repeat("x", 25), 10, 0, 3},
		{"重叠过大被修正", strings.Repeat("x", 12), 10, 20, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, textutil.SplitIntoChunks(tt.text, tt.size, tt.overlap), tt.wantCount)
		})
	}
}

func TestSplitIntoChunksBreaksAtWhitespace(t *testing.T) {
	text := strings.Repeat("word ", 40)
	chunks := textutil.SplitIntoChunks(text, 32, 8)
	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 32)
		for _, w := range strings.Fields(c) {
			assert.Equal(t, "word", w)
		}
	}
}

func TestSplitIntoChunksOverlap(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz"
	chunks := textutil.SplitIntoChunks(text, 10, 3)
	assert.Equal(t, []string{"abcdefghij", "hijklmnopq", "opqrstuvwx", "vwxyz"}, chunks)
}
