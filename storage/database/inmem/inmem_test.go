package inmemdb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core/user"
	"github.com/trezcool/masomo-console/storage/database"
	inmemdb "github.com/trezcool/masomo-console/storage/database/inmem"
	testutil "github.com/trezcool/masomo-console/tests"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewUserRepository(inmemdb.Open())

	jane := testutil.CreateUser(t, repo, "Jane Doe", "jane", "jane@masomo.test", testutil.Password, []string{user.RoleTeacher}, "7A")
	amani := testutil.CreateUser(t, repo, "Amani Juma", "amani", "", "", []string{user.RoleStudent}, "7A")
	assert.Equal(t, 1, jane.ID)
	assert.Equal(t, 2, amani.ID)

	users, err := repo.QueryAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "jane", users[0].Username)

	t.Run("by id", func(t *testing.T) {
		got, err := repo.GetUserByID(ctx, amani.ID)
		require.NoError(t, err)
		assert.Equal(t, "Amani Juma", got.Name)

		_, err = repo.GetUserByID(ctx, 42)
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("by username or email", func(t *testing.T) {
		for _, uname := range []string{"jane", "jane@masomo.test"} {
			got, err := repo.GetUserByUsernameOrEmail(ctx, uname)
			require.NoError(t, err)
			assert.Equal(t, jane.ID, got.ID)
		}
		// amani has no email: an empty lookup never matches
		_, err := repo.GetUserByUsernameOrEmail(ctx, "")
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("update password", func(t *testing.T) {
		require.NoError(t, jane.SetPassword("N3w!Passw0rd"))
		require.NoError(t, repo.UpdatePassword(ctx, jane.ID, jane.PasswordHash))

		got, err := repo.GetUserByID(ctx, jane.ID)
		require.NoError(t, err)
		assert.NoError(t, got.CheckPassword("N3w!Passw0rd"))
		assert.Error(t, got.CheckPassword(testutil.Password))

		assert.Equal(t, user.ErrNotFound, repo.UpdatePassword(ctx, 42, nil))
	})
}

func TestRecordRepository(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewRecordRepository(inmemdb.Open())

	first, err := repo.CreateRecord(ctx, "events", database.Document{"title": "Sports day", "id": 99})
	require.NoError(t, err)
	assert.Equal(t, 1, first["id"])
	second, err := repo.CreateRecord(ctx, "events", database.Document{"title": "Open day"})
	require.NoError(t, err)

	// returned docs are copies
	first["title"] = "changed"
	got, err := repo.GetRecord(ctx, "events", 1)
	require.NoError(t, err)
	assert.Equal(t, "Sports day", got["title"])

	updated, err := repo.UpdateRecord(ctx, "events", second["id"].(int), database.Document{"title": "Open day 2", "venue": nil, "id": 7})
	require.NoError(t, err)
	assert.Equal(t, database.Document{"id": 2, "title": "Open day 2"}, updated)

	docs, err := repo.ListRecords(ctx, "events")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, 1, docs[0]["id"])

	require.NoError(t, repo.DeleteRecord(ctx, "events", 1))
	assert.Equal(t, database.ErrRecordNotFound, repo.DeleteRecord(ctx, "events", 1))
	_, err = repo.GetRecord(ctx, "events", 1)
	assert.Equal(t, database.ErrRecordNotFound, err)
	_, err = repo.UpdateRecord(ctx, "results", 2, database.Document{})
	assert.Equal(t, database.ErrRecordNotFound, err)

	docs, err = repo.ListRecords(ctx, "adverts")
	require.NoError(t, err)
	assert.Empty(t, docs)
}
