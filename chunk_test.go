package pandaqa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk_Sanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		chunk    Chunk
		expected string
	}{
		{
			"already clean",
			Chunk{Text: "hello world"},
			"hello world",
		},
		{
			"surrounding whitespace",
			Chunk{Text: "  hello world\n"},
			"hello world",
		},
		{
			"internal whitespace collapsed",
			Chunk{Text: "hello\t\t world\n\nagain"},
			"hello world again",
		},
		{
			"only whitespace",
			Chunk{Text: " \n\t "},
			"",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.chunk.Sanitize().Text)
		})
	}
}
