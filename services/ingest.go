package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/physical-ai/textbook-rag/models"
)

// Ingestor runs the re-chunk + re-embed + re-upsert pass over the content
// directory. The pass is idempotent per source file: prior chunks for a file
// are replaced, never duplicated.
type Ingestor struct {
	loader   *DocumentLoader
	embedder Embedder
	store    VectorStore
	log      *logrus.Logger
}

// NewIngestor wires the ingestion pipeline.
func NewIngestor(loader *DocumentLoader, embedder Embedder, store VectorStore, log *logrus.Logger) *Ingestor {
	return &Ingestor{loader: loader, embedder: embedder, store: store, log: log}
}

// IngestDirectory chunks every supported file under the content root, embeds
// the chunks, and upserts them per source file. Unreadable files are skipped;
// an embedding or store failure aborts the pass.
func (s *Ingestor) IngestDirectory(ctx context.Context) (*models.IngestResponse, error) {
	chunks, skipped, err := s.loader.LoadAll()
	if err != nil {
		return nil, err
	}

	files := groupBySource(chunks)
	upserted := 0
	for _, fileChunks := range files {
		if err := s.ingestChunks(ctx, fileChunks); err != nil {
			return nil, err
		}
		upserted += len(fileChunks)
	}

	s.log.WithFields(logrus.Fields{
		"files":  len(files),
		"chunks": upserted,
	}).Info("ingestion pass finished")

	return &models.IngestResponse{
		FilesProcessed: len(files),
		FilesSkipped:   skipped,
		ChunksUpserted: upserted,
		Message:        "ingestion complete",
	}, nil
}

// IngestFile re-ingests a single file, replacing its prior chunks.
func (s *Ingestor) IngestFile(ctx context.Context, path string) error {
	chunks, err := s.loader.LoadFile(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	if len(chunks) == 0 {
		// Nothing chunkable left in the file; drop its stale entries.
		return s.store.DeleteBySource(ctx, path)
	}
	return s.ingestChunks(ctx, chunks)
}

// RemoveFile drops a deleted file's chunks from the index.
func (s *Ingestor) RemoveFile(ctx context.Context, path string) error {
	return s.store.DeleteBySource(ctx, path)
}

func (s *Ingestor) ingestChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks of %s: %w", chunks[0].SourceFile, err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	return s.store.Upsert(ctx, chunks)
}

// groupBySource splits a flat chunk list into per-file lists, preserving order.
func groupBySource(chunks []models.DocumentChunk) [][]models.DocumentChunk {
	var files [][]models.DocumentChunk
	index := make(map[string]int)
	for _, chunk := range chunks {
		i, ok := index[chunk.SourceFile]
		if !ok {
			i = len(files)
			index[chunk.SourceFile] = i
			files = append(files, nil)
		}
		files[i] = append(files[i], chunk)
	}
	return files
}
