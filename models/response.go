package models

// IngestResponse summarizes a full ingestion pass over the content directory.
type IngestResponse struct {
	FilesProcessed int    `json:"files_processed"`
	FilesSkipped   int    `json:"files_skipped"`
	ChunksUpserted int    `json:"chunks_upserted"`
	Message        string `json:"message,omitempty"`
}

// ErrorResponse is the uniform JSON error body for non-streaming failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
