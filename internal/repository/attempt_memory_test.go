package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookline/hookline/internal/domain"
)

func TestAttemptMemoryRepository_CreateAndGet(t *testing.T) {
	repo := NewAttemptMemoryRepository()
	ctx := context.Background()

	attempt := createTestAttempt(t, "/sites/main")
	require.NoError(t, repo.Create(ctx, attempt))

	got, err := repo.GetByID(ctx, attempt.SitePath, attempt.SubscriptionID, attempt.ID)
	require.NoError(t, err)
	assert.True(t, got.Pending())
	assert.Equal(t, attempt.Payload, got.Payload)

	// Returned attempts are copies.
	got.Payload[0] = 'X'
	again, err := repo.GetByID(ctx, attempt.SitePath, attempt.SubscriptionID, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, attempt.Payload, again.Payload)
}

func TestAttemptMemoryRepository_ListBySubscription_InsertionOrder(t *testing.T) {
	repo := NewAttemptMemoryRepository()
	ctx := context.Background()

	first := createTestAttempt(t, "/sites/main")
	second := createTestAttempt(t, "/sites/main")
	second.SubscriptionID = first.SubscriptionID
	unrelated := createTestAttempt(t, "/sites/main")

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, unrelated))

	attempts, err := repo.ListBySubscription(ctx, "/sites/main", first.SubscriptionID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, first.ID, attempts[0].ID)
	assert.Equal(t, second.ID, attempts[1].ID)

	count, err := repo.CountBySubscription(ctx, "/sites/main", first.SubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAttemptMemoryRepository_Resolve(t *testing.T) {
	repo := NewAttemptMemoryRepository()
	ctx := context.Background()

	attempt := createTestAttempt(t, "/sites/main")
	require.NoError(t, repo.Create(ctx, attempt))

	require.NoError(t, attempt.Resolve(domain.AttemptStatusSuccessful, "200 OK"))
	require.NoError(t, repo.Resolve(ctx, attempt))

	got, err := repo.GetByID(ctx, attempt.SitePath, attempt.SubscriptionID, attempt.ID)
	require.NoError(t, err)
	assert.True(t, got.Succeeded())
	assert.Equal(t, "200 OK", got.Message)
}

func TestAttemptMemoryRepository_Resolve_AlreadySettled(t *testing.T) {
	repo := NewAttemptMemoryRepository()
	ctx := context.Background()

	attempt := createTestAttempt(t, "/sites/main")
	require.NoError(t, repo.Create(ctx, attempt))

	settled := *attempt
	require.NoError(t, settled.Resolve(domain.AttemptStatusSuccessful, "200 OK"))
	require.NoError(t, repo.Resolve(ctx, &settled))

	racing := *attempt
	require.NoError(t, racing.Resolve(domain.AttemptStatusFailed, "timeout"))

	err := repo.Resolve(ctx, &racing)
	var resolved *domain.ErrAttemptResolved
	require.ErrorAs(t, err, &resolved)
	assert.Equal(t, domain.AttemptStatusSuccessful, resolved.Status)
}

func TestAttemptMemoryRepository_Resolve_NotFound(t *testing.T) {
	repo := NewAttemptMemoryRepository()

	attempt := createTestAttempt(t, "/sites/main")
	require.NoError(t, attempt.Resolve(domain.AttemptStatusFailed, "timeout"))

	err := repo.Resolve(context.Background(), attempt)
	assert.True(t, domain.IsNotFound(err))
}

func TestAttemptMemoryRepository_Delete(t *testing.T) {
	repo := NewAttemptMemoryRepository()
	ctx := context.Background()

	attempt := createTestAttempt(t, "/sites/main")
	require.NoError(t, repo.Create(ctx, attempt))
	require.NoError(t, repo.Delete(ctx, attempt.SitePath, attempt.SubscriptionID, attempt.ID))

	_, err := repo.GetByID(ctx, attempt.SitePath, attempt.SubscriptionID, attempt.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestAttemptMemoryRepository_DeleteBySubscription(t *testing.T) {
	repo := NewAttemptMemoryRepository()
	ctx := context.Background()

	first := createTestAttempt(t, "/sites/main")
	second := createTestAttempt(t, "/sites/main")
	second.SubscriptionID = first.SubscriptionID
	unrelated := createTestAttempt(t, "/sites/main")

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, unrelated))

	removed, err := repo.DeleteBySubscription(ctx, "/sites/main", first.SubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	remaining, err := repo.ListBySubscription(ctx, "/sites/main", unrelated.SubscriptionID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
