package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookline/hookline/internal/domain"
)

func TestSubscriptionMemoryRepository_CreateAndGet(t *testing.T) {
	repo := NewSubscriptionMemoryRepository()
	ctx := context.Background()

	sub := createTestSubscription("/sites/main")
	require.NoError(t, repo.Create(ctx, sub))

	got, err := repo.GetByID(ctx, "/sites/main", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.To, got.To)

	// The repository returns copies; mutating one must not leak back.
	got.To = "https://elsewhere.example.com/hook"
	again, err := repo.GetByID(ctx, "/sites/main", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.To, again.To)
}

func TestSubscriptionMemoryRepository_GetByID_WrongSite(t *testing.T) {
	repo := NewSubscriptionMemoryRepository()
	ctx := context.Background()

	sub := createTestSubscription("/sites/main")
	require.NoError(t, repo.Create(ctx, sub))

	_, err := repo.GetByID(ctx, "/sites/other", sub.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestSubscriptionMemoryRepository_List_InsertionOrder(t *testing.T) {
	repo := NewSubscriptionMemoryRepository()
	ctx := context.Background()

	first := createTestSubscription("/sites/main")
	second := createTestSubscription("/sites/main")
	other := createTestSubscription("/sites/other")

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, other))

	subs, err := repo.List(ctx, "/sites/main")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, first.ID, subs[0].ID)
	assert.Equal(t, second.ID, subs[1].ID)
}

func TestSubscriptionMemoryRepository_ListByOwner(t *testing.T) {
	repo := NewSubscriptionMemoryRepository()
	ctx := context.Background()

	mine := createTestSubscription("/sites/main")
	theirs := createTestSubscription("/sites/main")
	theirs.OwnerID = "owner-2"

	require.NoError(t, repo.Create(ctx, mine))
	require.NoError(t, repo.Create(ctx, theirs))

	subs, err := repo.ListByOwner(ctx, "/sites/main", "owner-1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, mine.ID, subs[0].ID)
}

func TestSubscriptionMemoryRepository_Update_PreservesCounter(t *testing.T) {
	repo := NewSubscriptionMemoryRepository()
	ctx := context.Background()

	sub := createTestSubscription("/sites/main")
	require.NoError(t, repo.Create(ctx, sub))

	_, err := repo.IncrementPreconditionFailures(ctx, "/sites/main", sub.ID)
	require.NoError(t, err)

	// Updates carry no counter of their own.
	sub.Active = false
	sub.PreconditionFailures = 99
	require.NoError(t, repo.Update(ctx, sub))

	got, err := repo.GetByID(ctx, "/sites/main", sub.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, 1, got.PreconditionFailures)
}

func TestSubscriptionMemoryRepository_Update_NotFound(t *testing.T) {
	repo := NewSubscriptionMemoryRepository()

	sub := createTestSubscription("/sites/main")
	err := repo.Update(context.Background(), sub)
	assert.True(t, domain.IsNotFound(err))
}

func TestSubscriptionMemoryRepository_Delete(t *testing.T) {
	repo := NewSubscriptionMemoryRepository()
	ctx := context.Background()

	sub := createTestSubscription("/sites/main")
	require.NoError(t, repo.Create(ctx, sub))
	require.NoError(t, repo.Delete(ctx, "/sites/main", sub.ID))

	_, err := repo.GetByID(ctx, "/sites/main", sub.ID)
	assert.True(t, domain.IsNotFound(err))

	err = repo.Delete(ctx, "/sites/main", sub.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestSubscriptionMemoryRepository_PreconditionFailureCounter(t *testing.T) {
	repo := NewSubscriptionMemoryRepository()
	ctx := context.Background()

	sub := createTestSubscription("/sites/main")
	require.NoError(t, repo.Create(ctx, sub))

	for want := 1; want <= 3; want++ {
		got, err := repo.IncrementPreconditionFailures(ctx, "/sites/main", sub.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	require.NoError(t, repo.ResetPreconditionFailures(ctx, "/sites/main", sub.ID))

	stored, err := repo.GetByID(ctx, "/sites/main", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.PreconditionFailures)
}
