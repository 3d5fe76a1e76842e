package pandaqa

import (
	"strings"

	"github.com/gofrs/uuid/v5"
)

type Vector []float32

type ChunkID struct{ uuid.UUID }

func NewChunkID() ChunkID {
	return ChunkID{uuid.Must(uuid.NewV4())}
}

// Chunk is a segment of ingested text. Score is only set on chunks returned
// from retrieval and is normalized to the [0,1] range.
type Chunk struct {
	ID       ChunkID  `json:"id"`
	FileID   FileID   `json:"file_id"`
	Text     string   `json:"text"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
}

type Metadata struct {
	Source     string `json:"source,omitempty"`
	Type       string `json:"type,omitempty"`
	Role       string `json:"role,omitempty"`
	Page       int    `json:"page,omitempty"`
	ChunkID    int    `json:"chunk_id,omitempty"`
	ChunkCount int    `json:"chunk_count,omitempty"`
}

type ChunkFilter struct {
	Vector  Vector
	FileIDs []FileID
}

func (c Chunk) Sanitize() Chunk {
	c.Text = strings.TrimSpace(c.Text)
	c.Text = strings.Join(strings.Fields(c.Text), " ")
	return c
}
