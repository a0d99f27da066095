package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeContentDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"week1.md": section("Sensors", 900) + "\n" + section("Actuators", 900),
		"week2.md": section("Gazebo", 500),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestIngestDirectory(t *testing.T) {
	dir := writeContentDir(t)
	store := &fakeStore{}
	ingestor := NewIngestor(NewDocumentLoader(dir, testLogger()),
		&fakeEmbedder{vec: make([]float32, EmbeddingDim)}, store, testLogger())

	resp, err := ingestor.IngestDirectory(context.Background())
	if err != nil {
		t.Fatalf("IngestDirectory failed: %v", err)
	}
	if resp.FilesProcessed != 2 {
		t.Errorf("files processed = %d, want 2", resp.FilesProcessed)
	}
	if resp.ChunksUpserted != len(store.upserted) {
		t.Errorf("response says %d chunks, store received %d", resp.ChunksUpserted, len(store.upserted))
	}
	for _, chunk := range store.upserted {
		if len(chunk.Embedding) != EmbeddingDim {
			t.Errorf("chunk %s upserted without embedding", chunk.ID)
		}
	}
}

func TestIngestDirectory_Idempotent(t *testing.T) {
	dir := writeContentDir(t)
	embedder := &fakeEmbedder{vec: make([]float32, EmbeddingDim)}

	first := &fakeStore{}
	ingestor := NewIngestor(NewDocumentLoader(dir, testLogger()), embedder, first, testLogger())
	respA, err := ingestor.IngestDirectory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	respB, err := ingestor.IngestDirectory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if respA.ChunksUpserted != respB.ChunksUpserted {
		t.Errorf("re-run upserted %d chunks, first run %d", respB.ChunksUpserted, respA.ChunksUpserted)
	}
}

func TestIngestDirectory_EmbeddingFailureAborts(t *testing.T) {
	dir := writeContentDir(t)
	ingestor := NewIngestor(NewDocumentLoader(dir, testLogger()),
		&fakeEmbedder{err: ErrRetrievalUnavailable}, &fakeStore{}, testLogger())

	if _, err := ingestor.IngestDirectory(context.Background()); err == nil {
		t.Fatal("expected an error when embedding is unavailable")
	}
}

func TestIngestFile_EmptyFileDropsStaleChunks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.md")
	if err := os.WriteFile(path, []byte("---\ntitle: x\n---\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := &fakeStore{}
	ingestor := NewIngestor(NewDocumentLoader(dir, testLogger()),
		&fakeEmbedder{vec: make([]float32, EmbeddingDim)}, store, testLogger())

	if err := ingestor.IngestFile(context.Background(), path); err != nil {
		t.Fatalf("IngestFile failed: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != path {
		t.Errorf("expected stale chunks of %s to be deleted, got %v", path, store.deleted)
	}
	if len(store.upserted) != 0 {
		t.Errorf("nothing should be upserted for an empty file, got %d chunks", len(store.upserted))
	}
}

func TestRemoveFile(t *testing.T) {
	store := &fakeStore{}
	ingestor := NewIngestor(NewDocumentLoader(t.TempDir(), testLogger()),
		&fakeEmbedder{vec: make([]float32, EmbeddingDim)}, store, testLogger())

	if err := ingestor.RemoveFile(context.Background(), "old.md"); err != nil {
		t.Fatal(err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "old.md" {
		t.Errorf("deleted = %v", store.deleted)
	}
}
