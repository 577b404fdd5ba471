package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination mocks/mock_generation_repository.go -package mocks github.com/hookline/hookline/internal/domain ConfigGenerationRepository

// ConfigGeneration records which declaratively configured subscription set
// was installed last, keyed by the component that owns it. Reconcilers diff
// the current configuration against the recorded entries so restarts only
// touch the store when the configuration actually changed.
type ConfigGeneration struct {
	Key        string    `json:"key"`
	Generation int       `json:"generation"`
	Entries    []string  `json:"entries"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ConfigGenerationRepository stores configuration generations.
type ConfigGenerationRepository interface {
	// Get retrieves the generation recorded under key
	Get(ctx context.Context, key string) (*ConfigGeneration, error)

	// Put inserts or replaces the generation recorded under key
	Put(ctx context.Context, gen *ConfigGeneration) error
}
