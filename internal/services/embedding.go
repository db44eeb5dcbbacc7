package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	applog "alfredoptarigan/resume-screener/internal/logger"
)

// Embedder maps a text onto a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedderFunc adapts a function to Embedder.
type EmbedderFunc func(ctx context.Context, text string) ([]float32, error)

func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// EmbeddingCache is the part of QdrantService the embedder reads through.
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, key uuid.UUID) ([]float32, bool, error)
	UpsertEmbedding(ctx context.Context, key uuid.UUID, vector []float32, payload map[string]any) error
}

var embeddingNamespace = uuid.MustParse("6f1c2a3e-9b7d-4c55-8e21-3d4f5a6b7c8d")

// EmbeddingKey derives a stable point id from the model and the exact text.
func EmbeddingKey(model, text string) uuid.UUID {
	return uuid.NewSHA1(embeddingNamespace, []byte(model+"\x00"+text))
}

type chunkedEmbedder struct {
	inner     Embedder
	chunker   TextChunker
	chunkSize int
	overlap   int
}

// NewChunkedEmbedder embeds long texts chunk by chunk and mean-pools the chunk
// vectors into one document vector.
func NewChunkedEmbedder(inner Embedder, chunker TextChunker, chunkSize, overlap int) Embedder {
	if chunker == nil {
		chunker = NewTextChunker()
	}
	return &chunkedEmbedder{inner: inner, chunker: chunker, chunkSize: chunkSize, overlap: overlap}
}

// Embed implements Embedder.
func (c *chunkedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	chunks := c.chunker.ChunkText(text, c.chunkSize, c.overlap)
	switch len(chunks) {
	case 0:
		return nil, errors.New("nothing to embed")
	case 1:
		return c.inner.Embed(ctx, chunks[0])
	}

	vectors := make([][]float32, 0, len(chunks))
	for i, chunk := range chunks {
		vec, err := c.inner.Embed(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		vectors = append(vectors, vec)
	}
	return meanPool(vectors)
}

func meanPool(vectors [][]float32) ([]float32, error) {
	dim := len(vectors[0])
	sum := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("embedding dimension mismatch: %d != %d", len(v), dim)
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
	}
	out := make([]float32, dim)
	for i := range sum {
		out[i] = float32(sum[i] / float64(len(vectors)))
	}
	return out, nil
}

type cachedEmbedder struct {
	inner  Embedder
	cache  EmbeddingCache
	model  string
	logger *zap.Logger
}

// NewCachedEmbedder reads through cache before calling inner. Cache failures
// are logged and otherwise ignored.
func NewCachedEmbedder(inner Embedder, cache EmbeddingCache, model string, logger *zap.Logger) Embedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedEmbedder{inner: inner, cache: cache, model: model, logger: logger}
}

// Embed implements Embedder.
func (c *cachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := EmbeddingKey(c.model, text)

	vec, ok, err := c.cache.GetEmbedding(ctx, key)
	if err != nil {
		c.logger.Warn("embedding cache lookup failed", zap.String("key", key.String()), zap.Error(err))
	}
	if ok {
		return vec, nil
	}

	vec, err = c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"model":   c.model,
		"preview": applog.TruncateForLog(strings.Join(strings.Fields(text), " "), 200),
	}
	if err := c.cache.UpsertEmbedding(ctx, key, vec, payload); err != nil {
		c.logger.Warn("embedding cache write failed", zap.String("key", key.String()), zap.Error(err))
	}
	return vec, nil
}
