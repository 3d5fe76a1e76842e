package pandaqatest

import (
	"math"

	"github.com/pandaqa/pandaqa"
)

type ChunkOption func(*pandaqa.Chunk)

func WithChunkFileID(id pandaqa.FileID) ChunkOption {
	return func(c *pandaqa.Chunk) {
		c.FileID = id
	}
}

func WithChunkText(text string) ChunkOption {
	return func(c *pandaqa.Chunk) {
		c.Text = text
	}
}

func WithChunkSource(source string) ChunkOption {
	return func(c *pandaqa.Chunk) {
		c.Metadata.Source = source
	}
}

func (g *DataGen) Chunk(options ...ChunkOption) pandaqa.Chunk {
	chunk := pandaqa.Chunk{
		ID:     pandaqa.NewChunkID(),
		FileID: pandaqa.NewFileID(),
		Text:   g.Sentence(12),
		Metadata: pandaqa.Metadata{
			Source: g.Word(),
			Type:   "text",
		},
	}

	for _, o := range options {
		o(&chunk)
	}

	return chunk
}

// Vector returns a unit-length vector of the given dimension.
func (g *DataGen) Vector(dim int) pandaqa.Vector {
	v := make(pandaqa.Vector, dim)
	var norm float32
	for i := range v {
		v[i] = float32(g.Float64Range(-1, 1))
		norm += v[i] * v[i]
	}
	if norm == 0 {
		v[0] = 1
		return v
	}
	length := float32(math.Sqrt(float64(norm)))
	for i := range v {
		v[i] /= length
	}
	return v
}
