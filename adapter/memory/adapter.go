// Package memory implements an in-process vector store with cosine
// similarity search and optional gob snapshots for persistence.
package memory

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/pandaqa/pandaqa"
)

type entry struct {
	Chunk  pandaqa.Chunk
	Vector pandaqa.Vector
}

type Adapter struct {
	mu      sync.RWMutex
	entries []entry
	logger  *zap.Logger
}

type Option func(*Adapter)

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

func New(options ...Option) *Adapter {
	a := &Adapter{
		logger: zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	return a
}

const adapterName = "memory"

func (a *Adapter) Name() string {
	return adapterName
}

func (a *Adapter) SaveChunks(ctx context.Context, chunks []pandaqa.Chunk, vectors []pandaqa.Vector) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors must have the same length")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range chunks {
		a.entries = append(a.entries, entry{Chunk: chunks[i], Vector: vectors[i]})
	}

	a.logger.Debug("saved chunks", zap.Int("count", len(chunks)), zap.Int("total", len(a.entries)))

	return nil
}

func (a *Adapter) SearchChunks(ctx context.Context, filter pandaqa.ChunkFilter, limit int) ([]pandaqa.Chunk, error) {
	if filter.Vector == nil {
		return nil, fmt.Errorf("vector is required for searching chunks")
	}
	if limit <= 0 {
		return nil, nil
	}

	fileIDs := make(map[pandaqa.FileID]struct{}, len(filter.FileIDs))
	for _, id := range filter.FileIDs {
		fileIDs[id] = struct{}{}
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	scored := make([]pandaqa.Chunk, 0, len(a.entries))
	for _, e := range a.entries {
		if len(fileIDs) > 0 {
			if _, ok := fileIDs[e.Chunk.FileID]; !ok {
				continue
			}
		}
		chunk := e.Chunk
		chunk.Score = cosineSimilarity(filter.Vector, e.Vector)
		scored = append(scored, chunk)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	return scored, nil
}

func (a *Adapter) ListChunks(ctx context.Context, limit int) ([]pandaqa.Chunk, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n := len(a.entries)
	if limit > 0 && limit < n {
		n = limit
	}

	chunks := make([]pandaqa.Chunk, 0, n)
	for _, e := range a.entries[:n] {
		chunks = append(chunks, e.Chunk)
	}

	return chunks, nil
}

func (a *Adapter) DeleteFileChunks(ctx context.Context, id pandaqa.FileID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.entries[:0]
	for _, e := range a.entries {
		if e.Chunk.FileID != id {
			kept = append(kept, e)
		}
	}
	a.entries = kept

	return nil
}

func (a *Adapter) CountChunks(ctx context.Context) (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.entries), nil
}

func (a *Adapter) Clear(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries = nil

	return nil
}

const snapshotFileName = "knowledge_base.gob"

// Persist writes a snapshot of all entries to dir.
func (a *Adapter) Persist(ctx context.Context, dir string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, snapshotFileName))
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(a.entries); err != nil {
		f.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}

	a.logger.Info("persisted knowledge base", zap.String("dir", dir), zap.Int("chunks", len(a.entries)))

	return f.Close()
}

// Restore replaces all entries with the snapshot from dir.
func (a *Adapter) Restore(ctx context.Context, dir string) (int, error) {
	f, err := os.Open(filepath.Join(dir, snapshotFileName))
	if err != nil {
		return 0, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()

	var entries []entry
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}

	a.mu.Lock()
	a.entries = entries
	a.mu.Unlock()

	a.logger.Info("restored knowledge base", zap.String("dir", dir), zap.Int("chunks", len(entries)))

	return len(entries), nil
}

// cosineSimilarity clamps to [0,1] so scores are comparable across
// retriever implementations.
func cosineSimilarity(a, b pandaqa.Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if similarity < 0 {
		return 0
	}
	if similarity > 1 {
		return 1
	}

	return similarity
}
