package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookline/hookline/internal/domain"
)

func setupGenerationMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *GenerationPostgresRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewGenerationPostgresRepository(&stubConnectionProvider{db: db})
	return db, mock, repo
}

func TestGenerationPostgresRepository_Get(t *testing.T) {
	db, mock, repo := setupGenerationMock(t)
	defer func() { _ = db.Close() }()

	entries, err := json.Marshal([]string{"fp-1", "fp-2"})
	require.NoError(t, err)
	updatedAt := time.Now().UTC()

	mock.ExpectQuery("SELECT .* FROM webhook_config_generations").
		WithArgs("webhook-subscriptions").
		WillReturnRows(sqlmock.NewRows([]string{"key", "generation", "entries", "updated_at"}).
			AddRow("webhook-subscriptions", 3, entries, updatedAt))

	gen, err := repo.Get(context.Background(), "webhook-subscriptions")
	require.NoError(t, err)
	assert.Equal(t, "webhook-subscriptions", gen.Key)
	assert.Equal(t, 3, gen.Generation)
	assert.Equal(t, []string{"fp-1", "fp-2"}, gen.Entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationPostgresRepository_Get_EmptyEntries(t *testing.T) {
	db, mock, repo := setupGenerationMock(t)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT .* FROM webhook_config_generations").
		WithArgs("webhook-subscriptions").
		WillReturnRows(sqlmock.NewRows([]string{"key", "generation", "entries", "updated_at"}).
			AddRow("webhook-subscriptions", 1, []byte(nil), time.Now().UTC()))

	gen, err := repo.Get(context.Background(), "webhook-subscriptions")
	require.NoError(t, err)
	assert.Empty(t, gen.Entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationPostgresRepository_Get_NotFound(t *testing.T) {
	db, mock, repo := setupGenerationMock(t)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT .* FROM webhook_config_generations").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	gen, err := repo.Get(context.Background(), "missing")
	assert.Nil(t, gen)
	assert.True(t, domain.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationPostgresRepository_Put(t *testing.T) {
	db, mock, repo := setupGenerationMock(t)
	defer func() { _ = db.Close() }()

	gen := &domain.ConfigGeneration{
		Key:        "webhook-subscriptions",
		Generation: 4,
		Entries:    []string{"fp-1"},
	}

	mock.ExpectExec("INSERT INTO webhook_config_generations").
		WithArgs("webhook-subscriptions", 4, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Put(context.Background(), gen)
	assert.NoError(t, err)
	// Put stamps UpdatedAt when the caller left it zero
	assert.False(t, gen.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationPostgresRepository_Put_Error(t *testing.T) {
	db, mock, repo := setupGenerationMock(t)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO webhook_config_generations").
		WillReturnError(errors.New("connection reset"))

	err := repo.Put(context.Background(), &domain.ConfigGeneration{Key: "webhook-subscriptions"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to put config generation")
	assert.NoError(t, mock.ExpectationsWereMet())
}
