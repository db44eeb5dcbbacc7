package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

// QdrantService stores document embeddings keyed by a content derived id, so
// an unchanged text is never embedded twice.
type QdrantService interface {
	InitCollection(ctx context.Context) error
	GetEmbedding(ctx context.Context, key uuid.UUID) ([]float32, bool, error)
	UpsertEmbedding(ctx context.Context, key uuid.UUID, vector []float32, payload map[string]any) error
	Close() error
}

type QdrantOptions struct {
	URL        string
	APIKey     string
	Collection string
	VectorSize uint64
}

type qdrantService struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
	logger         *zap.Logger
}

func NewQdrantService(opts QdrantOptions, logger *zap.Logger) (QdrantService, error) {
	parsed, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	// gRPC port unless the URL names one.
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   parsed.Hostname(),
		Port:   port,
		APIKey: opts.APIKey,
		UseTLS: parsed.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	if opts.VectorSize == 0 {
		opts.VectorSize = 768
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &qdrantService{
		client:         client,
		collectionName: opts.Collection,
		vectorSize:     opts.VectorSize,
		logger:         logger,
	}, nil
}

// InitCollection implements QdrantService.
func (q *qdrantService) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		q.logger.Debug("qdrant collection exists", zap.String("collection", q.collectionName))
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	q.logger.Info("qdrant collection created",
		zap.String("collection", q.collectionName),
		zap.Uint64("vector_size", q.vectorSize),
	)
	return nil
}

// GetEmbedding implements QdrantService.
func (q *qdrantService) GetEmbedding(ctx context.Context, key uuid.UUID) ([]float32, bool, error) {
	points, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: q.collectionName,
		Ids:            []*qdrant.PointId{qdrant.NewID(key.String())},
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get point: %w", err)
	}
	if len(points) == 0 {
		return nil, false, nil
	}

	data := points[0].GetVectors().GetVector().GetData()
	if len(data) == 0 {
		return nil, false, nil
	}
	return data, true, nil
}

// UpsertEmbedding implements QdrantService.
func (q *qdrantService) UpsertEmbedding(ctx context.Context, key uuid.UUID, vector []float32, payload map[string]any) error {
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(key.String()),
			Vectors: qdrant.NewVectors(vector...),
			Payload: qdrant.NewValueMap(payload),
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

func (q *qdrantService) Close() error {
	return q.client.Close()
}
