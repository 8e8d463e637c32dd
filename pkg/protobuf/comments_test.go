package protobuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeComment(t *testing.T) {
	assert.Equal(t, "one two three", NormalizeComment("\n * one\n *   two\n *\n * three\n "))
	assert.Equal(t, "single", NormalizeComment(" single "))
	assert.Empty(t, NormalizeComment("\n *\n "))
}

func TestParagraphComment(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"single line", " Just one. ", "Just one."},
		{"joined lines", "\n * a\n * b\n ", "a b"},
		{"star separator", "\n * a\n *\n * b\n ", "a\n\nb"},
		{"blank separator", "\n a\n\n b\n ", "a\n\nb"},
		{"windows newlines", "\r\n * a\r\n *\r\n * b\r\n ", "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParagraphComment(tt.raw))
		})
	}
}

func TestLineComment(t *testing.T) {
	assert.Equal(t, "a b", LineComment([]string{"// a", "  // b"}))
	assert.Equal(t, "a\n\nb", LineComment([]string{"// a", "//", "// b"}))
	assert.Equal(t, "doc style", LineComment([]string{"/// doc", "//   style"}))
	assert.Empty(t, LineComment([]string{"//", "//"}))
}
