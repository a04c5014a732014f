package milvus

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestEqualFilter(t *testing.T) {
	assert.Equal(t, `article_id == "2401.00001"`, EqualFilter(FieldArticleID, "2401.00001"))
	assert.Equal(t, `article_id == "a\"b"`, EqualFilter(FieldArticleID, `a"b`))
}

func TestTruncateKeepsUTF8(t *testing.T) {
	s := strings.Repeat("论", 10) // 30 bytes
	out := truncate(s, 10)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, 9, len(out))
	assert.Equal(t, "abc", truncate("abc", 10))
}
