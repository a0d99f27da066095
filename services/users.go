package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/physical-ai/textbook-rag/models"
)

// PostgresProfiles reads student backgrounds written by the signup flow.
// The chatbot only ever reads this table.
type PostgresProfiles struct {
	pool *pgxpool.Pool
}

// NewPostgresProfiles wraps an already-connected pool.
func NewPostgresProfiles(pool *pgxpool.Pool) *PostgresProfiles {
	return &PostgresProfiles{pool: pool}
}

// GetProfile returns the user's background, or (nil, nil) when the user does
// not exist or never filled one in.
func (s *PostgresProfiles) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var background []byte
	err := s.pool.QueryRow(ctx, `SELECT background FROM users WHERE id = $1`, userID).Scan(&background)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %s: %w", userID, err)
	}
	if len(background) == 0 {
		return nil, nil
	}

	var raw struct {
		ProgrammingExperience string   `json:"programming_experience"`
		RoboticsExperience    string   `json:"robotics_experience"`
		PreferredLanguages    []string `json:"preferred_languages"`
	}
	if err := json.Unmarshal(background, &raw); err != nil {
		return nil, fmt.Errorf("decoding background for user %s: %w", userID, err)
	}

	return &models.UserProfile{
		ID:                    userID,
		ProgrammingExperience: raw.ProgrammingExperience,
		RoboticsExperience:    raw.RoboticsExperience,
		PreferredLanguages:    raw.PreferredLanguages,
	}, nil
}
