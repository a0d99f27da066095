package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/physical-ai/textbook-rag/models"
)

// How much chunk text to keep per source document in the audit row.
const auditSnippetLen = 200

// PostgresChatLog appends one row per completed chat turn.
type PostgresChatLog struct {
	pool *pgxpool.Pool
}

// NewPostgresChatLog wraps an already-connected pool.
func NewPostgresChatLog(pool *pgxpool.Pool) *PostgresChatLog {
	return &PostgresChatLog{pool: pool}
}

// EnsureSchema creates the chat_history table if it does not exist.
func (s *PostgresChatLog) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS chat_history (
			id BIGSERIAL PRIMARY KEY,
			user_message TEXT NOT NULL,
			ai_response TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			source_documents JSONB
		)`)
	if err != nil {
		return fmt.Errorf("creating chat_history table: %w", err)
	}
	return nil
}

// LogInteraction inserts the completed turn. Source chunk text is truncated
// to a snippet; the full text lives in the vector store.
func (s *PostgresChatLog) LogInteraction(ctx context.Context, userMessage, aiResponse string, sources []models.SearchResult) error {
	var sourcesJSON []byte
	if len(sources) > 0 {
		type loggedSource struct {
			SourceFile  string  `json:"source_file"`
			Score       float32 `json:"score"`
			TextSnippet string  `json:"text_snippet"`
		}
		logged := make([]loggedSource, 0, len(sources))
		for _, src := range sources {
			logged = append(logged, loggedSource{
				SourceFile:  src.SourceFile,
				Score:       src.Score,
				TextSnippet: truncateRunes(src.Text, auditSnippetLen),
			})
		}
		var err error
		if sourcesJSON, err = json.Marshal(logged); err != nil {
			return fmt.Errorf("marshaling source documents: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_history (user_message, ai_response, source_documents) VALUES ($1, $2, $3)`,
		userMessage, aiResponse, sourcesJSON)
	if err != nil {
		return fmt.Errorf("inserting chat_history row: %w", err)
	}
	return nil
}
