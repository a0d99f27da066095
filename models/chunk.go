package models

// DocumentChunk is the atomic retrieval unit: a bounded span of source text
// plus where it came from. The embedding is filled in during ingestion.
type DocumentChunk struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	SourceFile string    `json:"source_file"`
	Position   int       `json:"position"`
	Embedding  []float32 `json:"-"`
}

// SearchResult is one nearest neighbor returned by the vector store.
// Score is cosine similarity, higher is more relevant; it is advisory only.
type SearchResult struct {
	Text       string  `json:"text"`
	SourceFile string  `json:"source_file"`
	Score      float32 `json:"score"`
}
