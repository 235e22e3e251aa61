package repository

import (
	"context"
	"testing"

	"basementbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoidRepository_Upsert(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewFactoidRepositoryScoped(testDB.DB.Pool, "guild-1")
	ctx := context.Background()

	t.Run("creates new factoid", func(t *testing.T) {
		factoid, err := repo.Upsert(ctx, "wifi", "The password is on the router", "user-1")
		require.NoError(t, err)
		require.NotNil(t, factoid)

		assert.Equal(t, "guild-1", factoid.GuildID)
		assert.Equal(t, "wifi", factoid.Name)
		assert.Equal(t, "The password is on the router", factoid.Content)
		assert.Equal(t, "user-1", factoid.CreatorID)
		assert.False(t, factoid.CreatedAt.IsZero())
	})

	t.Run("replaces existing content", func(t *testing.T) {
		_, err := repo.Upsert(ctx, "rules", "be nice", "user-1")
		require.NoError(t, err)

		updated, err := repo.Upsert(ctx, "rules", "read the pinned message", "user-2")
		require.NoError(t, err)
		assert.Equal(t, "read the pinned message", updated.Content)
		assert.Equal(t, "user-2", updated.CreatorID)

		fetched, err := repo.GetByName(ctx, "rules")
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, "read the pinned message", fetched.Content)
	})
}

func TestFactoidRepository_GetByName(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewFactoidRepositoryScoped(testDB.DB.Pool, "guild-1")
	ctx := context.Background()

	t.Run("not found returns nil", func(t *testing.T) {
		factoid, err := repo.GetByName(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, factoid)
	})

	t.Run("found", func(t *testing.T) {
		_, err := repo.Upsert(ctx, "wifi", "password123", "user-1")
		require.NoError(t, err)

		factoid, err := repo.GetByName(ctx, "wifi")
		require.NoError(t, err)
		require.NotNil(t, factoid)
		assert.Equal(t, "password123", factoid.Content)
	})
}

func TestFactoidRepository_Delete(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewFactoidRepositoryScoped(testDB.DB.Pool, "guild-1")
	ctx := context.Background()

	t.Run("deletes existing", func(t *testing.T) {
		_, err := repo.Upsert(ctx, "wifi", "password123", "user-1")
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, "wifi")
		require.NoError(t, err)
		assert.True(t, deleted)

		factoid, err := repo.GetByName(ctx, "wifi")
		require.NoError(t, err)
		assert.Nil(t, factoid)
	})

	t.Run("unknown name reports not deleted", func(t *testing.T) {
		deleted, err := repo.Delete(ctx, "never-existed")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestFactoidRepository_GuildIsolation(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	guildA := NewFactoidRepositoryScoped(testDB.DB.Pool, "guild-a")
	guildB := NewFactoidRepositoryScoped(testDB.DB.Pool, "guild-b")

	_, err := guildA.Upsert(ctx, "wifi", "guild a secret", "user-1")
	require.NoError(t, err)
	_, err = guildB.Upsert(ctx, "wifi", "guild b secret", "user-2")
	require.NoError(t, err)

	// Same name in both guilds, different rows
	a, err := guildA.GetByName(ctx, "wifi")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "guild a secret", a.Content)

	b, err := guildB.GetByName(ctx, "wifi")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "guild b secret", b.Content)

	// Deleting in one guild leaves the other untouched
	deleted, err := guildA.Delete(ctx, "wifi")
	require.NoError(t, err)
	assert.True(t, deleted)

	b, err = guildB.GetByName(ctx, "wifi")
	require.NoError(t, err)
	assert.NotNil(t, b)

	listA, err := guildA.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, listA)
}

func TestFactoidRepository_List(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewFactoidRepositoryScoped(testDB.DB.Pool, "guild-1")
	ctx := context.Background()

	for _, name := range []string{"zebra", "alpha", "middle"} {
		_, err := repo.Upsert(ctx, name, "content", "user-1")
		require.NoError(t, err)
	}

	factoids, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, factoids, 3)

	assert.Equal(t, "alpha", factoids[0].Name)
	assert.Equal(t, "middle", factoids[1].Name)
	assert.Equal(t, "zebra", factoids[2].Name)
}

func TestUnitOfWork_CommitAndRollback(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	factory := NewUnitOfWorkFactory(testDB.DB)
	ctx := context.Background()

	t.Run("commit persists", func(t *testing.T) {
		uow := factory.CreateForGuild("guild-1")
		require.NoError(t, uow.Begin(ctx))

		_, err := uow.FactoidRepository().Upsert(ctx, "committed", "yes", "user-1")
		require.NoError(t, err)
		require.NoError(t, uow.Commit())

		check := NewFactoidRepositoryScoped(testDB.DB.Pool, "guild-1")
		factoid, err := check.GetByName(ctx, "committed")
		require.NoError(t, err)
		assert.NotNil(t, factoid)
	})

	t.Run("rollback discards", func(t *testing.T) {
		uow := factory.CreateForGuild("guild-1")
		require.NoError(t, uow.Begin(ctx))

		_, err := uow.FactoidRepository().Upsert(ctx, "discarded", "no", "user-1")
		require.NoError(t, err)
		require.NoError(t, uow.Rollback())

		check := NewFactoidRepositoryScoped(testDB.DB.Pool, "guild-1")
		factoid, err := check.GetByName(ctx, "discarded")
		require.NoError(t, err)
		assert.Nil(t, factoid)
	})

	t.Run("accessor before begin panics", func(t *testing.T) {
		uow := factory.CreateForGuild("guild-1")
		assert.Panics(t, func() { uow.FactoidRepository() })
	})
}
