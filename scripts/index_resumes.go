package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/config"
	applog "alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

// Embeds every stored resume through the cached embedder so the first
// screening after a bulk upload does not pay for the embedding calls.
func main() {
	cfg, err := config.Load(viper.New())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if !cfg.SemanticAvailable() || !cfg.Qdrant.Enabled {
		log.Fatal("indexing needs SEMANTIC_ENABLED, GEMINI_API_KEY and QDRANT_ENABLED")
	}

	logger, err := applog.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	resumes, err := repositories.NewDocumentRepository(db).FindByKind(models.KindResume)
	if err != nil {
		logger.Fatal("failed to list resumes", zap.Error(err))
	}

	backends, closeBackends := services.ResolveBackends(ctx, cfg, logger)
	defer closeBackends()
	if backends.Embedder == nil {
		logger.Fatal("embedding backend could not be built")
	}

	extractor := services.NewTextExtractorService(logger)
	indexed, skipped := 0, 0
	for i := range resumes {
		if ctx.Err() != nil {
			break
		}
		doc := &resumes[i]
		result := extractor.Extract(doc)
		if result.Empty() {
			skipped++
			continue
		}
		if _, err := backends.Embedder.Embed(ctx, result.Text); err != nil {
			logger.Warn("failed to embed resume",
				zap.String("resume", doc.DisplayName()),
				zap.Error(err),
			)
			skipped++
			continue
		}
		indexed++
		logger.Debug("indexed resume", zap.String("resume", doc.DisplayName()))
	}

	logger.Info("indexing finished",
		zap.Int("indexed", indexed),
		zap.Int("skipped", skipped),
		zap.Int("total", len(resumes)),
	)
}
