package services

import (
	"context"

	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/config"
)

// ResolveBackends builds the optional lemmatizer and embedding backend once
// per process. A backend that cannot be built is logged and left nil, so the
// pipeline falls back to its baseline strategy. The returned func releases
// any connections.
func ResolveBackends(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Backends, func()) {
	var backends Backends
	closeFn := func() {}

	if cfg.Screening.LemmatizerEnabled {
		lemmatizer, err := NewEnglishLemmatizer()
		if err != nil {
			logger.Warn("lemmatizer unavailable, using frequency keywords", zap.Error(err))
		} else {
			backends.Lemmatizer = lemmatizer
		}
	}
	if backends.Lemmatizer == nil {
		logger.Info("keyword strategy", zap.String("strategy", StrategyFrequency))
	}

	if !cfg.SemanticAvailable() {
		logger.Info("semantic backend disabled, scores are lexical only")
		return backends, closeFn
	}

	gemini, err := NewGeminiService(ctx, GeminiOptions{
		APIKey:       cfg.Gemini.APIKey,
		EmbedModel:   cfg.Gemini.EmbedModel,
		MaxAttempts:  cfg.Worker.RetryMaxAttempts,
		InitialDelay: cfg.Worker.RetryInitialDelay,
	}, logger)
	if err != nil {
		logger.Warn("semantic backend unavailable", zap.Error(err))
		return backends, closeFn
	}

	var embedder Embedder = NewChunkedEmbedder(
		EmbedderFunc(gemini.GenerateEmbedding),
		NewTextChunker(),
		DefaultChunkSize,
		DefaultChunkOverlap,
	)

	if cfg.Qdrant.Enabled {
		cache, err := NewQdrantService(QdrantOptions{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			VectorSize: cfg.Qdrant.VectorSize,
		}, logger)
		switch {
		case err != nil:
			logger.Warn("embedding cache unavailable", zap.Error(err))
		default:
			if err := cache.InitCollection(ctx); err != nil {
				logger.Warn("embedding cache unavailable", zap.Error(err))
				_ = cache.Close()
				break
			}
			embedder = NewCachedEmbedder(embedder, cache, gemini.EmbedModel(), logger)
			closeFn = func() { _ = cache.Close() }
			logger.Info("embedding cache enabled", zap.String("collection", cfg.Qdrant.Collection))
		}
	}

	backends.Embedder = embedder
	logger.Info("semantic backend enabled", zap.String("model", gemini.EmbedModel()))
	return backends, closeFn
}
