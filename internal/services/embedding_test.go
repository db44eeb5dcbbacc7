package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memoryCache struct {
	points  map[uuid.UUID][]float32
	getErr  error
	upserts int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{points: map[uuid.UUID][]float32{}}
}

func (m *memoryCache) GetEmbedding(_ context.Context, key uuid.UUID) ([]float32, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.points[key]
	return v, ok, nil
}

func (m *memoryCache) UpsertEmbedding(_ context.Context, key uuid.UUID, vector []float32, _ map[string]any) error {
	m.upserts++
	m.points[key] = vector
	return nil
}

func TestEmbeddingKey(t *testing.T) {
	a := EmbeddingKey("text-embedding-004", "python developer")
	assert.Equal(t, a, EmbeddingKey("text-embedding-004", "python developer"))
	assert.NotEqual(t, a, EmbeddingKey("text-embedding-004", "java developer"))
	assert.NotEqual(t, a, EmbeddingKey("other-model", "python developer"))
	assert.Equal(t, uuid.Version(5), a.Version())
}

func TestCachedEmbedder_ReadsThrough(t *testing.T) {
	inner := &fakeEmbedder{}
	cache := newMemoryCache()
	embedder := NewCachedEmbedder(inner, cache, "m", nil)
	ctx := context.Background()

	first, err := embedder.Embed(ctx, "golang")
	require.NoError(t, err)
	second, err := embedder.Embed(ctx, "golang")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, cache.upserts)
}

func TestCachedEmbedder_CacheFailureFallsBackToInner(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	inner := &fakeEmbedder{}
	cache := newMemoryCache()
	cache.getErr = errors.New("qdrant unavailable")

	vec, err := NewCachedEmbedder(inner, cache, "m", zap.New(core)).Embed(context.Background(), "golang")
	require.NoError(t, err)
	assert.NotEmpty(t, vec)
	assert.Equal(t, 1, logs.FilterMessage("embedding cache lookup failed").Len())
}

func TestCachedEmbedder_PropagatesInnerError(t *testing.T) {
	cache := newMemoryCache()
	_, err := NewCachedEmbedder(&fakeEmbedder{err: errors.New("quota")}, cache, "m", nil).
		Embed(context.Background(), "golang")

	require.Error(t, err)
	assert.Zero(t, cache.upserts)
}

func TestChunkedEmbedder_MeanPoolsChunks(t *testing.T) {
	inner := &fakeEmbedder{vectors: []markerVector{
		{"alpha", []float32{1, 0}},
		{"beta", []float32{0, 1}},
	}}
	embedder := NewChunkedEmbedder(inner, NewTextChunker(), 12, 0)

	vec, err := embedder.Embed(context.Background(), "alpha alpha\n\nbeta beta")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vec)
	assert.Equal(t, 2, inner.calls)
}

func TestChunkedEmbedder_ShortTextIsEmbeddedOnce(t *testing.T) {
	inner := &fakeEmbedder{}
	vec, err := NewChunkedEmbedder(inner, nil, 100, 10).Embed(context.Background(), "short text")

	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 1}, vec)
	assert.Equal(t, 1, inner.calls)
}

func TestChunkedEmbedder_EmptyText(t *testing.T) {
	_, err := NewChunkedEmbedder(&fakeEmbedder{}, nil, 100, 10).Embed(context.Background(), "  ")
	assert.Error(t, err)
}

func TestMeanPool_DimensionMismatch(t *testing.T) {
	_, err := meanPool([][]float32{{1, 2}, {1}})
	assert.Error(t, err)
}

func TestTextChunker(t *testing.T) {
	chunker := NewTextChunker()

	t.Run("short text is one chunk", func(t *testing.T) {
		assert.Equal(t, []string{"one\n\ntwo"}, chunker.ChunkText("one\n\n\n\ntwo", 100, 10))
	})

	t.Run("paragraphs are packed up to the limit", func(t *testing.T) {
		text := "aaaa\n\nbbbb\n\ncccc"
		assert.Equal(t, []string{"aaaa\n\nbbbb", "cccc"}, chunker.ChunkText(text, 10, 0))
	})

	t.Run("overlap carries the previous tail", func(t *testing.T) {
		chunks := chunker.ChunkText("aaaa\n\nbbbb\n\ncccc", 10, 2)
		require.Len(t, chunks, 2)
		assert.True(t, strings.HasPrefix(chunks[1], "bb\n\ncccc"), chunks[1])
	})

	t.Run("long paragraph is split by sentence", func(t *testing.T) {
		text := "First sentence here. Second sentence here. Third one."
		chunks := chunker.ChunkText(text, 25, 0)
		assert.Equal(t, []string{"First sentence here.", "Second sentence here.", "Third one."}, chunks)
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, chunker.ChunkText("  \n\n ", 10, 0))
	})
}
