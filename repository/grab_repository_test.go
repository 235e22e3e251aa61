package repository

import (
	"context"
	"testing"

	"basementbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrabRepository_Create(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewGrabRepositoryScoped(testDB.DB.Pool, "guild-1")
	ctx := context.Background()

	grab, err := repo.Create(ctx, "user-1", "it works on my machine", "user-2")
	require.NoError(t, err)
	require.NotNil(t, grab)

	assert.Equal(t, "guild-1", grab.GuildID)
	assert.Equal(t, "user-1", grab.UserID)
	assert.Equal(t, "it works on my machine", grab.Quote)
	assert.Equal(t, "user-2", grab.GrabbedBy)
	assert.False(t, grab.CreatedAt.IsZero())
}

func TestGrabRepository_ListByUser(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewGrabRepositoryScoped(testDB.DB.Pool, "guild-1")
	ctx := context.Background()

	t.Run("empty for unknown user", func(t *testing.T) {
		grabs, err := repo.ListByUser(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, grabs)
	})

	t.Run("returns only the requested user's grabs", func(t *testing.T) {
		_, err := repo.Create(ctx, "user-1", "first", "user-9")
		require.NoError(t, err)
		_, err = repo.Create(ctx, "user-1", "second", "user-9")
		require.NoError(t, err)
		_, err = repo.Create(ctx, "user-2", "other", "user-9")
		require.NoError(t, err)

		grabs, err := repo.ListByUser(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, grabs, 2)
		for _, g := range grabs {
			assert.Equal(t, "user-1", g.UserID)
		}
	})
}

func TestGrabRepository_RandomByUser(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewGrabRepositoryScoped(testDB.DB.Pool, "guild-1")
	ctx := context.Background()

	t.Run("nil when no grabs", func(t *testing.T) {
		grab, err := repo.RandomByUser(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, grab)
	})

	t.Run("returns one of the stored quotes", func(t *testing.T) {
		quotes := map[string]bool{"alpha": true, "beta": true, "gamma": true}
		for quote := range quotes {
			_, err := repo.Create(ctx, "user-1", quote, "user-2")
			require.NoError(t, err)
		}

		grab, err := repo.RandomByUser(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, grab)
		assert.True(t, quotes[grab.Quote])
	})
}

func TestGrabRepository_GuildIsolation(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	guildA := NewGrabRepositoryScoped(testDB.DB.Pool, "guild-a")
	guildB := NewGrabRepositoryScoped(testDB.DB.Pool, "guild-b")

	_, err := guildA.Create(ctx, "user-1", "said in guild a", "user-2")
	require.NoError(t, err)

	grabs, err := guildB.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, grabs)

	grab, err := guildB.RandomByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, grab)
}
