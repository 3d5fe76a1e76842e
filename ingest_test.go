package pandaqa

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	chunks []Chunk
	err    error
}

func (s *stubExtractor) Extract(ctx context.Context, fileName string, contents io.ReadSeeker) ([]Chunk, error) {
	return s.chunks, s.err
}

func TestProcessText(t *testing.T) {
	t.Parallel()

	t.Run("chunks are embedded and saved", func(t *testing.T) {
		retriever := &stubRetriever{}
		extractor := &stubExtractor{chunks: []Chunk{
			{ID: NewChunkID(), Text: "first sentence"},
			{ID: NewChunkID(), Text: "second sentence"},
		}}

		qa := New(&stubEmbedder{vector: Vector{0.5}}, retriever, &stubGenerative{}, nil, nil,
			WithExtractor(extractor, "txt", "md"))

		count, err := qa.ProcessText(context.Background(), TextInput{
			Text: "first sentence. second sentence.",
			Role: RoleSales,
		})
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		require.Len(t, retriever.saved, 2)
		assert.Equal(t, "input", retriever.saved[0].Metadata.Source)
		assert.Equal(t, "text", retriever.saved[0].Metadata.Type)
		assert.Equal(t, string(RoleSales), retriever.saved[0].Metadata.Role)
	})

	t.Run("custom source is recorded", func(t *testing.T) {
		retriever := &stubRetriever{}
		extractor := &stubExtractor{chunks: []Chunk{{ID: NewChunkID(), Text: "a"}}}

		qa := New(&stubEmbedder{vector: Vector{0.5}}, retriever, &stubGenerative{}, nil, nil,
			WithExtractor(extractor, "txt"))

		_, err := qa.ProcessText(context.Background(), TextInput{Text: "a", Source: "handbook"})
		require.NoError(t, err)
		require.Len(t, retriever.saved, 1)
		assert.Equal(t, "handbook", retriever.saved[0].Metadata.Source)
	})

	t.Run("empty text is rejected", func(t *testing.T) {
		qa := New(&stubEmbedder{}, &stubRetriever{}, &stubGenerative{}, nil, nil,
			WithExtractor(&stubExtractor{}, "txt"))

		_, err := qa.ProcessText(context.Background(), TextInput{Text: "  \n "})
		require.Error(t, err)
	})

	t.Run("missing text extractor", func(t *testing.T) {
		qa := New(&stubEmbedder{}, &stubRetriever{}, &stubGenerative{}, nil, nil)

		_, err := qa.ProcessText(context.Background(), TextInput{Text: "a"})
		require.Error(t, err)
	})
}

func TestStatus(t *testing.T) {
	t.Parallel()

	retriever := &stubRetriever{chunks: []Chunk{{Text: "a"}, {Text: "b"}}}
	qa := New(&stubEmbedder{}, retriever, &stubGenerative{}, nil, nil)

	status, err := qa.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Status{Status: "ready", DocumentCount: 2}, status)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	t.Run("summarizes stored chunks", func(t *testing.T) {
		retriever := &stubRetriever{chunks: []Chunk{{Text: "a"}, {Text: "b"}}}
		qa := New(&stubEmbedder{}, retriever, &stubGenerative{summary: "two facts"}, nil, nil)

		summary, err := qa.Summarize(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Summary{Text: "two facts", DocumentCount: 2}, summary)
	})

	t.Run("empty knowledge base", func(t *testing.T) {
		qa := New(&stubEmbedder{}, &stubRetriever{}, &stubGenerative{}, nil, nil)

		summary, err := qa.Summarize(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "no documents in the knowledge base. please upload documents first.", summary.Text)
	})

	t.Run("unreachable model degrades", func(t *testing.T) {
		retriever := &stubRetriever{chunks: []Chunk{{Text: "a"}}}
		qa := New(&stubEmbedder{}, retriever, &stubGenerative{err: ErrGeneratorUnavailable}, nil, nil)

		summary, err := qa.Summarize(context.Background())
		require.NoError(t, err)
		assert.True(t, summary.Degraded)
	})
}
