package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// maxEmbeddingInput caps the characters sent per embedding request.
const maxEmbeddingInput = 40000

type GeminiService interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	EmbedModel() string
}

type GeminiOptions struct {
	APIKey       string
	EmbedModel   string
	MaxAttempts  int
	InitialDelay time.Duration
}

type geminiService struct {
	client       *genai.Client
	embedModel   string
	maxAttempts  int
	initialDelay time.Duration
	logger       *zap.Logger
}

func NewGeminiService(ctx context.Context, opts GeminiOptions, logger *zap.Logger) (GeminiService, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if opts.EmbedModel == "" {
		opts.EmbedModel = "text-embedding-004"
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:       client,
		embedModel:   opts.EmbedModel,
		maxAttempts:  opts.MaxAttempts,
		initialDelay: opts.InitialDelay,
		logger:       logger,
	}, nil
}

func (g *geminiService) EmbedModel() string {
	return g.embedModel
}

// GenerateEmbedding implements GeminiService. Transient API failures are
// retried with exponential backoff; an empty result is not retried.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if r := []rune(text); len(r) > maxEmbeddingInput {
		text = string(r[:maxEmbeddingInput])
	}

	operation := func() ([]float32, error) {
		result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
		if err != nil {
			return nil, err
		}
		if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
			return nil, backoff.Permanent(errors.New("empty embedding result"))
		}
		return result.Embeddings[0].Values, nil
	}

	bo := backoff.NewExponentialBackOff()
	if g.initialDelay > 0 {
		bo.InitialInterval = g.initialDelay
	}

	vector, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(g.maxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			g.logger.Warn("embedding request failed, retrying",
				zap.String("model", g.embedModel),
				zap.Duration("next", next),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	return vector, nil
}
