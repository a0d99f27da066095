package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const (
	// EmbeddingModel is the hosted Gemini embedding model.
	EmbeddingModel = "text-embedding-004"
	// EmbeddingDim is the vector size the store is provisioned for.
	EmbeddingDim = 768

	// The embedding endpoint accepts at most this many inputs per call.
	embedBatchLimit = 100
)

// Embedder turns text into fixed-dimension vectors. Failures are reported as
// ErrRetrievalUnavailable so callers can degrade to the no-context path.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// GeminiEmbedder calls the hosted Gemini embedding endpoint.
type GeminiEmbedder struct {
	client *genai.Client
	log    *logrus.Logger
}

// NewGeminiEmbedder wraps an already-constructed Gemini client.
func NewGeminiEmbedder(client *genai.Client, log *logrus.Logger) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, log: log}
}

// Embed returns the embedding vector for a single text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in endpoint-sized batches, preserving order.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += embedBatchLimit {
		end := min(start+embedBatchLimit, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(normalizeForEmbedding(text), genai.RoleUser))
		}

		resp, err := e.client.Models.EmbedContent(ctx, EmbeddingModel, contents, &genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(int32(EmbeddingDim)),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: embedding call failed: %v", ErrRetrievalUnavailable, err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("%w: embedding endpoint returned %d vectors for %d inputs",
				ErrRetrievalUnavailable, len(resp.Embeddings), end-start)
		}
		for _, emb := range resp.Embeddings {
			if len(emb.Values) != EmbeddingDim {
				return nil, fmt.Errorf("%w: unexpected embedding dimension %d", ErrRetrievalUnavailable, len(emb.Values))
			}
			vectors = append(vectors, emb.Values)
		}
	}
	return vectors, nil
}

// normalizeForEmbedding replaces newlines with spaces before the text is sent
// to the embedding endpoint.
func normalizeForEmbedding(text string) string {
	return strings.ReplaceAll(text, "\n", " ")
}
