package text

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pandaqa/pandaqa"
)

func (a *Adapter) Extract(ctx context.Context, fileName string, tempFile io.ReadSeeker) ([]pandaqa.Chunk, error) {
	raw, err := io.ReadAll(tempFile)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	content := decode(raw)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	texts := a.split(content)

	chunks := make([]pandaqa.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, pandaqa.Chunk{
			Text: text,
			Metadata: pandaqa.Metadata{
				Type:       "text",
				ChunkID:    i,
				ChunkCount: len(texts),
			},
		})
	}

	a.logger.Debug("extracted chunks",
		zap.String("file", fileName),
		zap.Int("chunks", len(chunks)),
	)

	return chunks, nil
}

// split groups sentences into chunks of roughly chunkSize characters. The
// tail of each chunk is repeated at the head of the next one so that
// retrieval does not lose statements that straddle a boundary.
func (a *Adapter) split(content string) []string {
	var sentenceTexts []string
	for _, s := range a.tokenizer.Tokenize(content) {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		sentenceTexts = append(sentenceTexts, text)
	}
	if len(sentenceTexts) == 0 {
		return nil
	}

	var (
		texts   []string
		current strings.Builder
	)
	for _, sentence := range sentenceTexts {
		if current.Len() > 0 && current.Len()+len(sentence)+1 > a.chunkSize {
			chunk := current.String()
			texts = append(texts, chunk)
			current.Reset()
			current.WriteString(overlapTail(chunk, a.chunkOverlap))
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		texts = append(texts, current.String())
	}

	return texts
}

// overlapTail returns the last complete words of chunk up to overlap bytes.
func overlapTail(chunk string, overlap int) string {
	if overlap <= 0 || len(chunk) <= overlap {
		return ""
	}
	tail := chunk[len(chunk)-overlap:]
	if idx := strings.IndexByte(tail, ' '); idx >= 0 {
		tail = tail[idx+1:]
	}
	return strings.TrimSpace(tail)
}

// decode interprets raw bytes as UTF-8, falling back to Latin-1 when the
// content is not valid UTF-8.
func decode(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}

	var sb strings.Builder
	sb.Grow(len(raw))
	for _, b := range raw {
		sb.WriteRune(rune(b))
	}
	return sb.String()
}
