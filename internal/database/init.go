package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hookline/hookline/internal/database/schema"
	"github.com/hookline/hookline/internal/domain"
)

// InitializeDatabase creates all necessary database tables if they don't exist
func InitializeDatabase(db *sql.DB) error {
	for _, query := range schema.TableDefinitions {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// SystemConnectionProvider backs every site scope with the single system
// database. Site scoping lives in table columns rather than separate
// databases, but callers stay keyed by site path so other layouts remain
// possible.
type SystemConnectionProvider struct {
	db *sql.DB
}

// NewSystemConnectionProvider wraps an open system database handle.
func NewSystemConnectionProvider(db *sql.DB) *SystemConnectionProvider {
	return &SystemConnectionProvider{db: db}
}

// Connection returns the system database for any site.
func (p *SystemConnectionProvider) Connection(ctx context.Context, site string) (*sql.DB, error) {
	if p.db == nil {
		return nil, fmt.Errorf("system database is not connected")
	}
	return p.db, nil
}

var _ domain.ConnectionProvider = (*SystemConnectionProvider)(nil)
