package services

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"github.com/sirupsen/logrus"

	"github.com/physical-ai/textbook-rag/models"
)

// CollectionName is the Qdrant collection holding textbook chunk embeddings.
const CollectionName = "textbook_embeddings"

// VectorStore is the thin wrapper over the hosted vector index.
type VectorStore interface {
	// Upsert writes chunks, replacing any prior entries for the same source
	// files. Chunks must carry embeddings.
	Upsert(ctx context.Context, chunks []models.DocumentChunk) error
	// Search returns up to limit nearest neighbors by cosine similarity in
	// non-increasing score order. An empty result is a valid outcome.
	Search(ctx context.Context, embedding []float32, limit int) ([]models.SearchResult, error)
	// DeleteBySource removes every chunk ingested from one source file.
	DeleteBySource(ctx context.Context, sourceFile string) error
}

// QdrantStore implements VectorStore on Qdrant's gRPC client.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	log        *logrus.Logger
}

// NewQdrantStore wraps an already-connected Qdrant client.
func NewQdrantStore(client *qdrant.Client, log *logrus.Logger) *QdrantStore {
	return &QdrantStore{client: client, collection: CollectionName, log: log}
}

// EnsureCollection creates the cosine-distance collection if it does not exist.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("checking collection %q: %w", s.collection, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(EmbeddingDim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", s.collection, err)
	}
	s.log.WithField("collection", s.collection).Info("created vector collection")
	return nil
}

// Upsert replaces all points for each chunk's source file, then writes the
// chunks. Re-running ingestion for an unchanged file therefore never leaves
// duplicates behind.
func (s *QdrantStore) Upsert(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) != EmbeddingDim {
			return fmt.Errorf("chunk %s of %s has no %d-dim embedding", chunk.ID, chunk.SourceFile, EmbeddingDim)
		}
		if !seen[chunk.SourceFile] {
			seen[chunk.SourceFile] = true
			if err := s.DeleteBySource(ctx, chunk.SourceFile); err != nil {
				return err
			}
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.ID),
			Vectors: qdrant.NewVectors(chunk.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"text":        chunk.Text,
				"source_file": chunk.SourceFile,
				"position":    int64(chunk.Position),
			}),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: upsert failed: %v", ErrRetrievalUnavailable, err)
	}
	return nil
}

// Search queries the collection for the nearest neighbors of the embedding.
func (s *QdrantStore) Search(ctx context.Context, embedding []float32, limit int) ([]models.SearchResult, error) {
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: vector search failed: %v", ErrRetrievalUnavailable, err)
	}
	return resultsFromPoints(points), nil
}

// DeleteBySource drops every point whose payload matches the source file.
func (s *QdrantStore) DeleteBySource(ctx context.Context, sourceFile string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("source_file", sourceFile)},
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: delete by source %q failed: %v", ErrRetrievalUnavailable, sourceFile, err)
	}
	return nil
}

// resultsFromPoints converts scored points to SearchResults, dropping points
// with empty text. Qdrant returns points in non-increasing score order.
func resultsFromPoints(points []*qdrant.ScoredPoint) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(points))
	for _, point := range points {
		text := point.Payload["text"].GetStringValue()
		if text == "" {
			continue
		}
		results = append(results, models.SearchResult{
			Text:       text,
			SourceFile: point.Payload["source_file"].GetStringValue(),
			Score:      point.Score,
		})
	}
	return results
}
