package vectorindex

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
)

// QdrantConfig points the index at a collection.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

// collectionAdmin is the part of the Qdrant client that manages collections.
type collectionAdmin interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
}

// Qdrant is a VectorIndex backed by a Qdrant collection with cosine distance.
type Qdrant struct {
	client     *qdrant.Client
	admin      collectionAdmin
	collection string
	dim        int
	logger     *slog.Logger
}

var _ ports.VectorIndex = (*Qdrant)(nil)

// NewQdrant connects to the server over gRPC. The collection is created
// lazily by EnsureIndex.
func NewQdrant(cfg QdrantConfig, logger *slog.Logger) (*Qdrant, error) {
	if logger == nil {
		logger = slog.Default()
	}
	port := cfg.Port
	if port == 0 {
		port = 6334
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "news"
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}

	return &Qdrant{
		client:     client,
		admin:      client,
		collection: collection,
		dim:        domain.EmbeddingDimension,
		logger:     logger.With("component", "qdrant_index", "collection", collection),
	}, nil
}

// EnsureIndex creates the collection when it does not exist yet. Losing a
// creation race to another caller is not an error.
func (q *Qdrant) EnsureIndex(ctx context.Context) error {
	exists, err := q.admin.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", q.collection, err)
	}
	if exists {
		return nil
	}

	err = q.admin.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		if exists, checkErr := q.admin.CollectionExists(ctx, q.collection); checkErr == nil && exists {
			q.logger.Debug("collection created concurrently", "error", err)
			return nil
		}
		return fmt.Errorf("create collection %s: %w", q.collection, err)
	}
	q.logger.Info("collection created", "dimension", q.dim)
	return nil
}

// BulkInsert upserts documents in batches. A failed batch marks all of its
// documents failed; other batches still go through.
func (q *Qdrant) BulkInsert(ctx context.Context, docs []domain.IndexDocument) (domain.BulkResult, error) {
	valid, failed := split(docs, q.dim)
	result := domain.BulkResult{Failed: failed}

	wait := true
	for start := 0; start < len(valid); start += defaultBatchSize {
		end := min(start+defaultBatchSize, len(valid))
		batch := valid[start:end]

		points := make([]*qdrant.PointStruct, 0, len(batch))
		for _, doc := range batch {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewID(doc.ArticleID),
				Vectors: qdrant.NewVectors(doc.Embedding...),
				Payload: qdrant.NewValueMap(map[string]any{
					"title": doc.Title,
					"body":  doc.Body,
				}),
			})
		}

		_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.collection,
			Points:         points,
			Wait:           &wait,
		})
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			q.logger.Warn("batch upsert failed", "from", start, "to", end, "error", err)
			for _, doc := range batch {
				result.Failed = append(result.Failed, domain.DocumentError{ID: doc.ArticleID, Reason: err.Error()})
			}
			continue
		}
		result.Indexed += len(batch)
	}

	return result, nil
}

// Search returns the k nearest documents by cosine similarity.
func (q *Qdrant) Search(ctx context.Context, vector []float32, k int) ([]domain.SearchHit, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(vector) != q.dim {
		return nil, fmt.Errorf("query vector has %d dimensions, want %d: %w", len(vector), q.dim, domain.ErrValidation)
	}

	limit := uint64(k)
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(points))
	for _, p := range points {
		var id string
		switch v := p.GetId().GetPointIdOptions().(type) {
		case *qdrant.PointId_Uuid:
			id = v.Uuid
		case *qdrant.PointId_Num:
			id = fmt.Sprintf("%d", v.Num)
		default:
			return nil, fmt.Errorf("unexpected point id type %T", v)
		}
		hits = append(hits, domain.SearchHit{ID: id, Score: float64(p.GetScore())})
	}
	return hits, nil
}

// Close releases the gRPC connection.
func (q *Qdrant) Close() error {
	return q.client.Close()
}
