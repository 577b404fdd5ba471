package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hookline/hookline/internal/domain"
)

// GenerationPostgresRepository stores configuration generations in the
// system database. Generations are not site-scoped; one row per key.
type GenerationPostgresRepository struct {
	conns domain.ConnectionProvider
}

// NewGenerationPostgresRepository creates a new Postgres-backed generation
// repository.
func NewGenerationPostgresRepository(conns domain.ConnectionProvider) *GenerationPostgresRepository {
	return &GenerationPostgresRepository{conns: conns}
}

var _ domain.ConfigGenerationRepository = (*GenerationPostgresRepository)(nil)

// Get retrieves the generation recorded under key
func (r *GenerationPostgresRepository) Get(ctx context.Context, key string) (*domain.ConfigGeneration, error) {
	db, err := executorFor(ctx, r.conns, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	query := `
		SELECT key, generation, entries, updated_at
		FROM webhook_config_generations
		WHERE key = $1
	`
	var (
		gen     domain.ConfigGeneration
		entries []byte
	)
	err = db.QueryRowContext(ctx, query, key).Scan(&gen.Key, &gen.Generation, &entries, &gen.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.ErrNotFound{Entity: "config generation", ID: key}
		}
		return nil, fmt.Errorf("failed to get config generation: %w", err)
	}
	if len(entries) > 0 {
		if err := json.Unmarshal(entries, &gen.Entries); err != nil {
			return nil, fmt.Errorf("failed to unmarshal generation entries: %w", err)
		}
	}
	return &gen, nil
}

// Put inserts or replaces the generation recorded under key
func (r *GenerationPostgresRepository) Put(ctx context.Context, gen *domain.ConfigGeneration) error {
	db, err := executorFor(ctx, r.conns, "")
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}

	entries, err := json.Marshal(gen.Entries)
	if err != nil {
		return fmt.Errorf("failed to marshal generation entries: %w", err)
	}
	if gen.UpdatedAt.IsZero() {
		gen.UpdatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO webhook_config_generations (key, generation, entries, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET generation = $2, entries = $3, updated_at = $4
	`
	_, err = db.ExecContext(ctx, query, gen.Key, gen.Generation, entries, gen.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to put config generation: %w", err)
	}
	return nil
}
